package packet

const carMotionSize = 60

type CarMotion struct {
	WorldPositionX     float32
	WorldPositionY     float32
	WorldPositionZ     float32
	WorldVelocityX     float32
	WorldVelocityY     float32
	WorldVelocityZ     float32
	WorldForwardDirX   int16
	WorldForwardDirY   int16
	WorldForwardDirZ   int16
	WorldRightDirX     int16
	WorldRightDirY     int16
	WorldRightDirZ     int16
	GForceLateral      float32
	GForceLongitudinal float32
	GForceVertical     float32
	Yaw                float32
	Pitch              float32
	Roll               float32
}

type MotionPacket struct {
	Header
	Cars [MaxCars]CarMotion
}

func (m *CarMotion) read(r *reader) {
	m.WorldPositionX = r.f32()
	m.WorldPositionY = r.f32()
	m.WorldPositionZ = r.f32()
	m.WorldVelocityX = r.f32()
	m.WorldVelocityY = r.f32()
	m.WorldVelocityZ = r.f32()
	m.WorldForwardDirX = r.i16()
	m.WorldForwardDirY = r.i16()
	m.WorldForwardDirZ = r.i16()
	m.WorldRightDirX = r.i16()
	m.WorldRightDirY = r.i16()
	m.WorldRightDirZ = r.i16()
	m.GForceLateral = r.f32()
	m.GForceLongitudinal = r.f32()
	m.GForceVertical = r.f32()
	m.Yaw = r.f32()
	m.Pitch = r.f32()
	m.Roll = r.f32()
}

func (m *CarMotion) write(w *writer) {
	w.f32(m.WorldPositionX)
	w.f32(m.WorldPositionY)
	w.f32(m.WorldPositionZ)
	w.f32(m.WorldVelocityX)
	w.f32(m.WorldVelocityY)
	w.f32(m.WorldVelocityZ)
	w.i16(m.WorldForwardDirX)
	w.i16(m.WorldForwardDirY)
	w.i16(m.WorldForwardDirZ)
	w.i16(m.WorldRightDirX)
	w.i16(m.WorldRightDirY)
	w.i16(m.WorldRightDirZ)
	w.f32(m.GForceLateral)
	w.f32(m.GForceLongitudinal)
	w.f32(m.GForceVertical)
	w.f32(m.Yaw)
	w.f32(m.Pitch)
	w.f32(m.Roll)
}

func decodeMotion(h Header, r *reader) (Packet, error) {
	p := &MotionPacket{Header: h}
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *MotionPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(MotionID).write(w)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	return w.buf
}
