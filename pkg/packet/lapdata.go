package packet

const lapDataSize = 57

type CarLapData struct {
	LastLapTimeMS               uint32
	CurrentLapTimeMS            uint32
	Sector1TimeMSPart           uint16
	Sector1TimeMinutesPart      uint8
	Sector2TimeMSPart           uint16
	Sector2TimeMinutesPart      uint8
	DeltaToCarInFrontMSPart     uint16
	DeltaToCarInFrontMinutes    uint8
	DeltaToRaceLeaderMSPart     uint16
	DeltaToRaceLeaderMinutes    uint8
	LapDistance                 float32
	TotalDistance               float32
	SafetyCarDelta              float32
	CarPosition                 uint8
	CurrentLapNum               uint8
	PitStatus                   uint8
	NumPitStops                 uint8
	Sector                      uint8
	CurrentLapInvalid           uint8
	Penalties                   uint8
	TotalWarnings               uint8
	CornerCuttingWarnings       uint8
	NumUnservedDriveThroughPens uint8
	NumUnservedStopGoPens       uint8
	GridPosition                uint8
	DriverStatus                uint8
	ResultStatus                uint8
	PitLaneTimerActive          uint8
	PitLaneTimeInLaneMS         uint16
	PitStopTimerMS              uint16
	PitStopShouldServePen       uint8
	SpeedTrapFastestSpeed       float32
	SpeedTrapFastestLap         uint8
}

type LapDataPacket struct {
	Header
	Cars                 [MaxCars]CarLapData
	TimeTrialPBCarIdx    uint8
	TimeTrialRivalCarIdx uint8
}

func combineMinutes(minutes uint8, ms uint16) uint32 {
	return uint32(minutes)*60000 + uint32(ms)
}

func (l *CarLapData) Sector1MS() uint32 {
	return combineMinutes(l.Sector1TimeMinutesPart, l.Sector1TimeMSPart)
}

func (l *CarLapData) Sector2MS() uint32 {
	return combineMinutes(l.Sector2TimeMinutesPart, l.Sector2TimeMSPart)
}

func (l *CarLapData) DeltaToCarInFrontMS() uint32 {
	return combineMinutes(l.DeltaToCarInFrontMinutes, l.DeltaToCarInFrontMSPart)
}

func (l *CarLapData) DeltaToRaceLeaderMS() uint32 {
	return combineMinutes(l.DeltaToRaceLeaderMinutes, l.DeltaToRaceLeaderMSPart)
}

func (l *CarLapData) LapInvalid() bool {
	return l.CurrentLapInvalid != 0
}

func (l *CarLapData) read(r *reader) {
	l.LastLapTimeMS = r.u32()
	l.CurrentLapTimeMS = r.u32()
	l.Sector1TimeMSPart = r.u16()
	l.Sector1TimeMinutesPart = r.u8()
	l.Sector2TimeMSPart = r.u16()
	l.Sector2TimeMinutesPart = r.u8()
	l.DeltaToCarInFrontMSPart = r.u16()
	l.DeltaToCarInFrontMinutes = r.u8()
	l.DeltaToRaceLeaderMSPart = r.u16()
	l.DeltaToRaceLeaderMinutes = r.u8()
	l.LapDistance = r.f32()
	l.TotalDistance = r.f32()
	l.SafetyCarDelta = r.f32()
	l.CarPosition = r.u8()
	l.CurrentLapNum = r.u8()
	l.PitStatus = r.u8()
	l.NumPitStops = r.u8()
	l.Sector = r.u8()
	l.CurrentLapInvalid = r.u8()
	l.Penalties = r.u8()
	l.TotalWarnings = r.u8()
	l.CornerCuttingWarnings = r.u8()
	l.NumUnservedDriveThroughPens = r.u8()
	l.NumUnservedStopGoPens = r.u8()
	l.GridPosition = r.u8()
	l.DriverStatus = r.u8()
	l.ResultStatus = r.u8()
	l.PitLaneTimerActive = r.u8()
	l.PitLaneTimeInLaneMS = r.u16()
	l.PitStopTimerMS = r.u16()
	l.PitStopShouldServePen = r.u8()
	l.SpeedTrapFastestSpeed = r.f32()
	l.SpeedTrapFastestLap = r.u8()
}

func (l *CarLapData) write(w *writer) {
	w.u32(l.LastLapTimeMS)
	w.u32(l.CurrentLapTimeMS)
	w.u16(l.Sector1TimeMSPart)
	w.u8(l.Sector1TimeMinutesPart)
	w.u16(l.Sector2TimeMSPart)
	w.u8(l.Sector2TimeMinutesPart)
	w.u16(l.DeltaToCarInFrontMSPart)
	w.u8(l.DeltaToCarInFrontMinutes)
	w.u16(l.DeltaToRaceLeaderMSPart)
	w.u8(l.DeltaToRaceLeaderMinutes)
	w.f32(l.LapDistance)
	w.f32(l.TotalDistance)
	w.f32(l.SafetyCarDelta)
	w.u8(l.CarPosition)
	w.u8(l.CurrentLapNum)
	w.u8(l.PitStatus)
	w.u8(l.NumPitStops)
	w.u8(l.Sector)
	w.u8(l.CurrentLapInvalid)
	w.u8(l.Penalties)
	w.u8(l.TotalWarnings)
	w.u8(l.CornerCuttingWarnings)
	w.u8(l.NumUnservedDriveThroughPens)
	w.u8(l.NumUnservedStopGoPens)
	w.u8(l.GridPosition)
	w.u8(l.DriverStatus)
	w.u8(l.ResultStatus)
	w.u8(l.PitLaneTimerActive)
	w.u16(l.PitLaneTimeInLaneMS)
	w.u16(l.PitStopTimerMS)
	w.u8(l.PitStopShouldServePen)
	w.f32(l.SpeedTrapFastestSpeed)
	w.u8(l.SpeedTrapFastestLap)
}

func decodeLapData(h Header, r *reader) (Packet, error) {
	p := &LapDataPacket{Header: h}
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	p.TimeTrialPBCarIdx = r.u8()
	p.TimeTrialRivalCarIdx = r.u8()
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *LapDataPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(LapDataID).write(w)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	w.u8(p.TimeTrialPBCarIdx)
	w.u8(p.TimeTrialRivalCarIdx)
	return w.buf
}
