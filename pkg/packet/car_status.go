package packet

import (
	"fmt"
	"strings"
)

// CarStatusLayout selects the per car record size of the car status packet.
// Two sizes were observed across protocol point releases. The layout is a
// configuration input instead of being guessed per datagram.
type CarStatusLayout int

const (
	// Layout55 is the F1 24 record layout (55 bytes).
	Layout55 CarStatusLayout = iota
	// Layout58 carries the same fields followed by 3 reserved bytes.
	Layout58
	// LayoutAuto picks Layout58 if the body is large enough, otherwise Layout55.
	LayoutAuto
)

const (
	carStatusSize55 = 55
	carStatusSize58 = 58
)

func (l CarStatusLayout) String() string {
	switch l {
	case Layout55:
		return "55"
	case Layout58:
		return "58"
	case LayoutAuto:
		return "auto"
	default:
		return fmt.Sprintf("CarStatusLayout(%d)", int(l))
	}
}

func ParseCarStatusLayout(s string) (CarStatusLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "55":
		return Layout55, nil
	case "58":
		return Layout58, nil
	case "auto":
		return LayoutAuto, nil
	default:
		return Layout55, fmt.Errorf("unknown car status layout %q", s)
	}
}

func (l CarStatusLayout) recordSize(bodyLen int) int {
	switch l {
	case Layout58:
		return carStatusSize58
	case LayoutAuto:
		if bodyLen >= MaxCars*carStatusSize58 {
			return carStatusSize58
		}
		return carStatusSize55
	default:
		return carStatusSize55
	}
}

type CarStatusData struct {
	TractionControl         uint8
	AntiLockBrakes          uint8
	FuelMix                 uint8
	FrontBrakeBias          uint8
	PitLimiterStatus        uint8
	FuelInTank              float32
	FuelCapacity            float32
	FuelRemainingLaps       float32
	MaxRPM                  uint16
	IdleRPM                 uint16
	MaxGears                uint8
	DRSAllowed              uint8
	DRSActivationDistance   uint16
	ActualTyreCompound      uint8
	VisualTyreCompound      uint8
	TyresAgeLaps            uint8
	VehicleFIAFlags         int8
	EnginePowerICE          float32
	EnginePowerMGUK         float32
	ERSStoreEnergy          float32
	ERSDeployMode           uint8
	ERSHarvestedThisLapMGUK float32
	ERSHarvestedThisLapMGUH float32
	ERSDeployedThisLap      float32
	NetworkPaused           uint8
}

type CarStatusPacket struct {
	Header
	Layout CarStatusLayout
	Cars   [MaxCars]CarStatusData
}

func (s *CarStatusData) read(r *reader) {
	s.TractionControl = r.u8()
	s.AntiLockBrakes = r.u8()
	s.FuelMix = r.u8()
	s.FrontBrakeBias = r.u8()
	s.PitLimiterStatus = r.u8()
	s.FuelInTank = r.f32()
	s.FuelCapacity = r.f32()
	s.FuelRemainingLaps = r.f32()
	s.MaxRPM = r.u16()
	s.IdleRPM = r.u16()
	s.MaxGears = r.u8()
	s.DRSAllowed = r.u8()
	s.DRSActivationDistance = r.u16()
	s.ActualTyreCompound = r.u8()
	s.VisualTyreCompound = r.u8()
	s.TyresAgeLaps = r.u8()
	s.VehicleFIAFlags = r.i8()
	s.EnginePowerICE = r.f32()
	s.EnginePowerMGUK = r.f32()
	s.ERSStoreEnergy = r.f32()
	s.ERSDeployMode = r.u8()
	s.ERSHarvestedThisLapMGUK = r.f32()
	s.ERSHarvestedThisLapMGUH = r.f32()
	s.ERSDeployedThisLap = r.f32()
	s.NetworkPaused = r.u8()
}

func (s *CarStatusData) write(w *writer) {
	w.u8(s.TractionControl)
	w.u8(s.AntiLockBrakes)
	w.u8(s.FuelMix)
	w.u8(s.FrontBrakeBias)
	w.u8(s.PitLimiterStatus)
	w.f32(s.FuelInTank)
	w.f32(s.FuelCapacity)
	w.f32(s.FuelRemainingLaps)
	w.u16(s.MaxRPM)
	w.u16(s.IdleRPM)
	w.u8(s.MaxGears)
	w.u8(s.DRSAllowed)
	w.u16(s.DRSActivationDistance)
	w.u8(s.ActualTyreCompound)
	w.u8(s.VisualTyreCompound)
	w.u8(s.TyresAgeLaps)
	w.i8(s.VehicleFIAFlags)
	w.f32(s.EnginePowerICE)
	w.f32(s.EnginePowerMGUK)
	w.f32(s.ERSStoreEnergy)
	w.u8(s.ERSDeployMode)
	w.f32(s.ERSHarvestedThisLapMGUK)
	w.f32(s.ERSHarvestedThisLapMGUH)
	w.f32(s.ERSDeployedThisLap)
	w.u8(s.NetworkPaused)
}

func carStatusDecoder(layout CarStatusLayout) bodyDecoder {
	return func(h Header, r *reader) (Packet, error) {
		size := layout.recordSize(r.remaining())
		p := &CarStatusPacket{Header: h, Layout: Layout55}
		if size == carStatusSize58 {
			p.Layout = Layout58
		}
		for i := range p.Cars {
			// the whole record must be present, not only the known fields
			if !r.need(size) {
				break
			}
			p.Cars[i].read(r)
			r.skip(size - carStatusSize55)
		}
		if r.err != nil {
			return nil, r.err
		}
		return p, nil
	}
}

func (p *CarStatusPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(CarStatusID).write(w)
	pad := 0
	if p.Layout == Layout58 {
		pad = carStatusSize58 - carStatusSize55
	}
	for i := range p.Cars {
		p.Cars[i].write(w)
		w.zero(pad)
	}
	return w.buf
}
