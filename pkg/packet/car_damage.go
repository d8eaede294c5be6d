package packet

const carDamageSize = 42

// CarDamage values are percentages unless noted otherwise.
type CarDamage struct {
	TyresWear            [4]float32
	TyresDamage          [4]uint8
	BrakesDamage         [4]uint8
	FrontLeftWingDamage  uint8
	FrontRightWingDamage uint8
	RearWingDamage       uint8
	FloorDamage          uint8
	DiffuserDamage       uint8
	SidepodDamage        uint8
	DRSFault             uint8 // 0 = ok, 1 = fault
	ERSFault             uint8 // 0 = ok, 1 = fault
	GearBoxDamage        uint8
	EngineDamage         uint8
	EngineMGUHWear       uint8
	EngineESWear         uint8
	EngineCEWear         uint8
	EngineICEWear        uint8
	EngineMGUKWear       uint8
	EngineTCWear         uint8
	EngineBlown          uint8
	EngineSeized         uint8
}

type CarDamagePacket struct {
	Header
	Cars [MaxCars]CarDamage
}

// FrontWingDamage is the mean of both front wing sides.
func (d *CarDamage) FrontWingDamage() uint8 {
	return uint8((int(d.FrontLeftWingDamage) + int(d.FrontRightWingDamage)) / 2)
}

func (d *CarDamage) read(r *reader) {
	d.TyresWear = r.f32x4()
	d.TyresDamage = r.u8x4()
	d.BrakesDamage = r.u8x4()
	d.FrontLeftWingDamage = r.u8()
	d.FrontRightWingDamage = r.u8()
	d.RearWingDamage = r.u8()
	d.FloorDamage = r.u8()
	d.DiffuserDamage = r.u8()
	d.SidepodDamage = r.u8()
	d.DRSFault = r.u8()
	d.ERSFault = r.u8()
	d.GearBoxDamage = r.u8()
	d.EngineDamage = r.u8()
	d.EngineMGUHWear = r.u8()
	d.EngineESWear = r.u8()
	d.EngineCEWear = r.u8()
	d.EngineICEWear = r.u8()
	d.EngineMGUKWear = r.u8()
	d.EngineTCWear = r.u8()
	d.EngineBlown = r.u8()
	d.EngineSeized = r.u8()
}

func (d *CarDamage) write(w *writer) {
	w.f32x4(d.TyresWear)
	w.u8x4(d.TyresDamage)
	w.u8x4(d.BrakesDamage)
	w.u8(d.FrontLeftWingDamage)
	w.u8(d.FrontRightWingDamage)
	w.u8(d.RearWingDamage)
	w.u8(d.FloorDamage)
	w.u8(d.DiffuserDamage)
	w.u8(d.SidepodDamage)
	w.u8(d.DRSFault)
	w.u8(d.ERSFault)
	w.u8(d.GearBoxDamage)
	w.u8(d.EngineDamage)
	w.u8(d.EngineMGUHWear)
	w.u8(d.EngineESWear)
	w.u8(d.EngineCEWear)
	w.u8(d.EngineICEWear)
	w.u8(d.EngineMGUKWear)
	w.u8(d.EngineTCWear)
	w.u8(d.EngineBlown)
	w.u8(d.EngineSeized)
}

func decodeCarDamage(h Header, r *reader) (Packet, error) {
	p := &CarDamagePacket{Header: h}
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *CarDamagePacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(CarDamageID).write(w)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	return w.buf
}
