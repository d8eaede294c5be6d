package packet

const carTelemetrySize = 60

// CarTelemetry holds the per car telemetry. Wheel arrays use the
// RL, RR, FL, FR order (see WheelRL).
type CarTelemetry struct {
	Speed                   uint16  // km/h
	Throttle                float32 // 0..1
	Steer                   float32 // -1 (full lock left) .. 1 (full lock right)
	Brake                   float32 // 0..1
	Clutch                  uint8   // 0..100
	Gear                    int8    // -1 = R, 0 = N
	EngineRPM               uint16
	DRS                     uint8
	RevLightsPercent        uint8
	RevLightsBitValue       uint16
	BrakesTemperature       [4]uint16
	TyresSurfaceTemperature [4]uint8
	TyresInnerTemperature   [4]uint8
	EngineTemperature       uint16
	TyresPressure           [4]float32
	SurfaceType             [4]uint8
}

type CarTelemetryPacket struct {
	Header
	Cars                         [MaxCars]CarTelemetry
	MFDPanelIndex                uint8
	MFDPanelIndexSecondaryPlayer uint8
	SuggestedGear                int8
}

func (t *CarTelemetry) read(r *reader) {
	t.Speed = r.u16()
	t.Throttle = r.f32()
	t.Steer = r.f32()
	t.Brake = r.f32()
	t.Clutch = r.u8()
	t.Gear = r.i8()
	t.EngineRPM = r.u16()
	t.DRS = r.u8()
	t.RevLightsPercent = r.u8()
	t.RevLightsBitValue = r.u16()
	t.BrakesTemperature = r.u16x4()
	t.TyresSurfaceTemperature = r.u8x4()
	t.TyresInnerTemperature = r.u8x4()
	t.EngineTemperature = r.u16()
	t.TyresPressure = r.f32x4()
	t.SurfaceType = r.u8x4()
}

func (t *CarTelemetry) write(w *writer) {
	w.u16(t.Speed)
	w.f32(t.Throttle)
	w.f32(t.Steer)
	w.f32(t.Brake)
	w.u8(t.Clutch)
	w.i8(t.Gear)
	w.u16(t.EngineRPM)
	w.u8(t.DRS)
	w.u8(t.RevLightsPercent)
	w.u16(t.RevLightsBitValue)
	w.u16x4(t.BrakesTemperature)
	w.u8x4(t.TyresSurfaceTemperature)
	w.u8x4(t.TyresInnerTemperature)
	w.u16(t.EngineTemperature)
	w.f32x4(t.TyresPressure)
	w.u8x4(t.SurfaceType)
}

func decodeCarTelemetry(h Header, r *reader) (Packet, error) {
	p := &CarTelemetryPacket{Header: h}
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	p.MFDPanelIndex = r.u8()
	p.MFDPanelIndexSecondaryPlayer = r.u8()
	p.SuggestedGear = r.i8()
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *CarTelemetryPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(CarTelemetryID).write(w)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	w.u8(p.MFDPanelIndex)
	w.u8(p.MFDPanelIndexSecondaryPlayer)
	w.i8(p.SuggestedGear)
	return w.buf
}
