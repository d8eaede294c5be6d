package packet

const motionExSize = 208

// Wheel array order used by all packets carrying per wheel values.
const (
	WheelRL = iota
	WheelRR
	WheelFL
	WheelFR
)

// MotionExPacket carries extended physics data for the player car only.
type MotionExPacket struct {
	Header
	SuspensionPosition     [4]float32
	SuspensionVelocity     [4]float32
	SuspensionAcceleration [4]float32
	WheelSpeed             [4]float32
	WheelSlipRatio         [4]float32
	WheelSlipAngle         [4]float32
	WheelLatForce          [4]float32
	WheelLongForce         [4]float32
	HeightOfCOGAboveGround float32
	LocalVelocityX         float32
	LocalVelocityY         float32
	LocalVelocityZ         float32
	AngularVelocityX       float32
	AngularVelocityY       float32
	AngularVelocityZ       float32
	AngularAccelerationX   float32
	AngularAccelerationY   float32
	AngularAccelerationZ   float32
	FrontWheelsAngle       float32
	WheelVertForce         [4]float32
	FrontAeroHeight        float32
	RearAeroHeight         float32
	FrontRollAngle         float32
	RearRollAngle          float32
	ChassisYaw             float32
}

// FrontSlip is the mean slip ratio of the front axle.
func (p *MotionExPacket) FrontSlip() float32 {
	return (p.WheelSlipRatio[WheelFL] + p.WheelSlipRatio[WheelFR]) / 2
}

// RearSlip is the mean slip ratio of the rear axle.
func (p *MotionExPacket) RearSlip() float32 {
	return (p.WheelSlipRatio[WheelRL] + p.WheelSlipRatio[WheelRR]) / 2
}

func decodeMotionEx(h Header, r *reader) (Packet, error) {
	p := &MotionExPacket{Header: h}
	p.SuspensionPosition = r.f32x4()
	p.SuspensionVelocity = r.f32x4()
	p.SuspensionAcceleration = r.f32x4()
	p.WheelSpeed = r.f32x4()
	p.WheelSlipRatio = r.f32x4()
	p.WheelSlipAngle = r.f32x4()
	p.WheelLatForce = r.f32x4()
	p.WheelLongForce = r.f32x4()
	p.HeightOfCOGAboveGround = r.f32()
	p.LocalVelocityX = r.f32()
	p.LocalVelocityY = r.f32()
	p.LocalVelocityZ = r.f32()
	p.AngularVelocityX = r.f32()
	p.AngularVelocityY = r.f32()
	p.AngularVelocityZ = r.f32()
	p.AngularAccelerationX = r.f32()
	p.AngularAccelerationY = r.f32()
	p.AngularAccelerationZ = r.f32()
	p.FrontWheelsAngle = r.f32()
	p.WheelVertForce = r.f32x4()
	p.FrontAeroHeight = r.f32()
	p.RearAeroHeight = r.f32()
	p.FrontRollAngle = r.f32()
	p.RearRollAngle = r.f32()
	p.ChassisYaw = r.f32()
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *MotionExPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(MotionExID).write(w)
	w.f32x4(p.SuspensionPosition)
	w.f32x4(p.SuspensionVelocity)
	w.f32x4(p.SuspensionAcceleration)
	w.f32x4(p.WheelSpeed)
	w.f32x4(p.WheelSlipRatio)
	w.f32x4(p.WheelSlipAngle)
	w.f32x4(p.WheelLatForce)
	w.f32x4(p.WheelLongForce)
	w.f32(p.HeightOfCOGAboveGround)
	w.f32(p.LocalVelocityX)
	w.f32(p.LocalVelocityY)
	w.f32(p.LocalVelocityZ)
	w.f32(p.AngularVelocityX)
	w.f32(p.AngularVelocityY)
	w.f32(p.AngularVelocityZ)
	w.f32(p.AngularAccelerationX)
	w.f32(p.AngularAccelerationY)
	w.f32(p.AngularAccelerationZ)
	w.f32(p.FrontWheelsAngle)
	w.f32x4(p.WheelVertForce)
	w.f32(p.FrontAeroHeight)
	w.f32(p.RearAeroHeight)
	w.f32(p.FrontRollAngle)
	w.f32(p.RearRollAngle)
	w.f32(p.ChassisYaw)
	return w.buf
}
