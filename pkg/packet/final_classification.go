package packet

const (
	classificationSize = 45
	maxTyreStints      = 8
)

type Stint struct {
	ActualCompound uint8
	VisualCompound uint8
	EndLap         uint8
}

type Classification struct {
	Position          uint8
	NumLaps           uint8
	GridPosition      uint8
	Points            uint8
	NumPitStops       uint8
	ResultStatus      uint8
	BestLapTimeMS     uint32
	TotalRaceTime     float64 // seconds, without penalties
	PenaltiesTime     uint8   // seconds
	NumPenalties      uint8
	NumTyreStints     uint8
	TyreStintsActual  [maxTyreStints]uint8
	TyreStintsVisual  [maxTyreStints]uint8
	TyreStintsEndLaps [maxTyreStints]uint8
}

type FinalClassificationPacket struct {
	Header
	NumCars uint8
	Cars    [MaxCars]Classification
}

// Stints returns the first NumTyreStints stints.
func (c *Classification) Stints() []Stint {
	n := min(int(c.NumTyreStints), maxTyreStints)
	ret := make([]Stint, n)
	for i := range ret {
		ret[i] = Stint{
			ActualCompound: c.TyreStintsActual[i],
			VisualCompound: c.TyreStintsVisual[i],
			EndLap:         c.TyreStintsEndLaps[i],
		}
	}
	return ret
}

func (c *Classification) read(r *reader) {
	c.Position = r.u8()
	c.NumLaps = r.u8()
	c.GridPosition = r.u8()
	c.Points = r.u8()
	c.NumPitStops = r.u8()
	c.ResultStatus = r.u8()
	c.BestLapTimeMS = r.u32()
	c.TotalRaceTime = r.f64()
	c.PenaltiesTime = r.u8()
	c.NumPenalties = r.u8()
	c.NumTyreStints = r.u8()
	copy(c.TyreStintsActual[:], r.bytes(maxTyreStints))
	copy(c.TyreStintsVisual[:], r.bytes(maxTyreStints))
	copy(c.TyreStintsEndLaps[:], r.bytes(maxTyreStints))
}

func (c *Classification) write(w *writer) {
	w.u8(c.Position)
	w.u8(c.NumLaps)
	w.u8(c.GridPosition)
	w.u8(c.Points)
	w.u8(c.NumPitStops)
	w.u8(c.ResultStatus)
	w.u32(c.BestLapTimeMS)
	w.f64(c.TotalRaceTime)
	w.u8(c.PenaltiesTime)
	w.u8(c.NumPenalties)
	w.u8(c.NumTyreStints)
	w.fixed(c.TyreStintsActual[:], maxTyreStints)
	w.fixed(c.TyreStintsVisual[:], maxTyreStints)
	w.fixed(c.TyreStintsEndLaps[:], maxTyreStints)
}

func decodeFinalClassification(h Header, r *reader) (Packet, error) {
	p := &FinalClassificationPacket{Header: h}
	p.NumCars = r.u8()
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *FinalClassificationPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(FinalClassificationID).write(w)
	w.u8(p.NumCars)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	return w.buf
}
