package packet

const (
	marshalZoneSize     = 6
	weatherForecastSize = 4
)

type MarshalZone struct {
	ZoneStart float32 // fraction (0..1) of way through the lap the zone starts
	ZoneFlag  int8    // -1 = invalid, 0 = none, 1 = green, 2 = blue, 3 = yellow
}

type WeatherForecast struct {
	TimeOffset uint8 // minutes
	Weather    uint8
	TrackTemp  int8
	AirTemp    int8
}

type SessionPacket struct {
	Header
	Weather             uint8
	TrackTemp           int8
	AirTemp             int8
	TotalLaps           uint8
	TrackLength         uint16
	SessionType         uint8
	TrackID             int8
	Formula             uint8
	TimeLeft            uint16
	SessionDuration     uint16
	PitSpeedLimit       uint8
	GamePaused          uint8
	IsSpectating        uint8
	SpectatorCarIndex   uint8
	SliProNativeSupport uint8
	MarshalZones        []MarshalZone
	SafetyCarStatus     uint8
	NetworkGame         uint8
	// empty when the optional forecast section is absent
	Forecast []WeatherForecast
}

func decodeSession(h Header, r *reader) (Packet, error) {
	p := &SessionPacket{Header: h}
	p.Weather = r.u8()
	p.TrackTemp = r.i8()
	p.AirTemp = r.i8()
	p.TotalLaps = r.u8()
	p.TrackLength = r.u16()
	p.SessionType = r.u8()
	p.TrackID = r.i8()
	p.Formula = r.u8()
	p.TimeLeft = r.u16()
	p.SessionDuration = r.u16()
	p.PitSpeedLimit = r.u8()
	p.GamePaused = r.u8()
	p.IsSpectating = r.u8()
	p.SpectatorCarIndex = r.u8()
	p.SliProNativeSupport = r.u8()
	numZones := int(r.u8())
	if r.need(numZones * marshalZoneSize) {
		p.MarshalZones = make([]MarshalZone, numZones)
		for i := range p.MarshalZones {
			p.MarshalZones[i].ZoneStart = r.f32()
			p.MarshalZones[i].ZoneFlag = r.i8()
			r.skip(1)
		}
	}
	p.SafetyCarStatus = r.u8()
	p.NetworkGame = r.u8()
	if r.err != nil {
		return nil, r.err
	}
	p.Forecast = readForecast(r)
	return p, nil
}

// readForecast reads the optional trailing forecast section.
// A missing section yields an empty list, a truncated one only the
// complete records.
func readForecast(r *reader) []WeatherForecast {
	ret := []WeatherForecast{}
	if r.remaining() < 1 {
		return ret
	}
	num := int(r.u8())
	for range num {
		if r.remaining() < weatherForecastSize {
			break
		}
		ret = append(ret, WeatherForecast{
			TimeOffset: r.u8(),
			Weather:    r.u8(),
			TrackTemp:  r.i8(),
			AirTemp:    r.i8(),
		})
	}
	return ret
}

func (p *SessionPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(SessionID).write(w)
	w.u8(p.Weather)
	w.i8(p.TrackTemp)
	w.i8(p.AirTemp)
	w.u8(p.TotalLaps)
	w.u16(p.TrackLength)
	w.u8(p.SessionType)
	w.i8(p.TrackID)
	w.u8(p.Formula)
	w.u16(p.TimeLeft)
	w.u16(p.SessionDuration)
	w.u8(p.PitSpeedLimit)
	w.u8(p.GamePaused)
	w.u8(p.IsSpectating)
	w.u8(p.SpectatorCarIndex)
	w.u8(p.SliProNativeSupport)
	w.u8(uint8(len(p.MarshalZones)))
	for _, z := range p.MarshalZones {
		w.f32(z.ZoneStart)
		w.i8(z.ZoneFlag)
		w.zero(1)
	}
	w.u8(p.SafetyCarStatus)
	w.u8(p.NetworkGame)
	if p.Forecast != nil {
		w.u8(uint8(len(p.Forecast)))
		for _, f := range p.Forecast {
			w.u8(f.TimeOffset)
			w.u8(f.Weather)
			w.i8(f.TrackTemp)
			w.i8(f.AirTemp)
		}
	}
	return w.buf
}
