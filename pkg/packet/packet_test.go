//nolint:funlen // ok for tests
package packet

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader(id PacketID) Header {
	return Header{
		PacketFormat:            SupportedFormat,
		GameYear:                24,
		GameMajorVersion:        1,
		GameMinorVersion:        18,
		PacketVersion:           1,
		PacketID:                id,
		SessionUID:              0x1122334455667788,
		SessionTime:             123.5,
		FrameIdentifier:         4711,
		OverallFrameIdentifier:  4712,
		PlayerCarIndex:          3,
		SecondaryPlayerCarIndex: 255,
	}
}

func sampleMotion() *MotionPacket {
	p := &MotionPacket{Header: sampleHeader(MotionID)}
	for i := range p.Cars {
		f := float32(i)
		p.Cars[i] = CarMotion{
			WorldPositionX: f, WorldPositionY: f + 1, WorldPositionZ: -f,
			WorldVelocityX: 10, WorldForwardDirX: int16(-i), WorldRightDirZ: 32767,
			GForceLateral: 1.5, GForceLongitudinal: -0.5, GForceVertical: 1,
			Yaw: 0.1, Pitch: 0.2, Roll: 0.3,
		}
	}
	return p
}

func sampleMotionEx() *MotionExPacket {
	return &MotionExPacket{
		Header:           sampleHeader(MotionExID),
		WheelSpeed:       [4]float32{80, 80.5, 81, 81.5},
		WheelSlipRatio:   [4]float32{0.01, 0.03, 0.09, 0.11},
		LocalVelocityZ:   80,
		FrontWheelsAngle: 0.12,
		WheelVertForce:   [4]float32{3000, 3100, 2800, 2900},
		ChassisYaw:       0.5,
	}
}

func sampleSession() *SessionPacket {
	return &SessionPacket{
		Header:          sampleHeader(SessionID),
		Weather:         1,
		TrackTemp:       32,
		AirTemp:         -2,
		TotalLaps:       57,
		TrackLength:     5412,
		SessionType:     10,
		TrackID:         3,
		TimeLeft:        3600,
		SessionDuration: 7200,
		PitSpeedLimit:   80,
		MarshalZones: []MarshalZone{
			{ZoneStart: 0.1, ZoneFlag: 0},
			{ZoneStart: 0.5, ZoneFlag: 3},
		},
		SafetyCarStatus: 2,
		NetworkGame:     1,
		Forecast: []WeatherForecast{
			{TimeOffset: 5, Weather: 1, TrackTemp: 30, AirTemp: 22},
			{TimeOffset: 10, Weather: 3, TrackTemp: 28, AirTemp: -1},
		},
	}
}

func sampleLapData() *LapDataPacket {
	p := &LapDataPacket{Header: sampleHeader(LapDataID), TimeTrialPBCarIdx: 255}
	for i := range p.Cars {
		p.Cars[i] = CarLapData{
			LastLapTimeMS:           78500,
			CurrentLapTimeMS:        uint32(1000 * i),
			Sector1TimeMSPart:       20000,
			Sector2TimeMSPart:       5000,
			Sector2TimeMinutesPart:  1,
			DeltaToRaceLeaderMSPart: uint16(100 * i),
			LapDistance:             float32(i * 10),
			CarPosition:             uint8(i + 1),
			CurrentLapNum:           3,
			CurrentLapInvalid:       uint8(i % 2),
			SpeedTrapFastestSpeed:   312.5,
			SpeedTrapFastestLap:     2,
		}
	}
	return p
}

func sampleParticipants() *ParticipantsPacket {
	p := &ParticipantsPacket{Header: sampleHeader(ParticipantsID), NumActiveCars: 20}
	for i := range p.Cars {
		p.Cars[i] = Participant{
			AIControlled: uint8(i % 2),
			TeamID:       uint8(i / 2),
			RaceNumber:   uint8(i + 1),
			Name:         "Driver",
			TechLevel:    1234,
			Platform:     1,
		}
	}
	p.Cars[0].Name = "Max Mustermann"
	return p
}

func sampleCarTelemetry() *CarTelemetryPacket {
	p := &CarTelemetryPacket{Header: sampleHeader(CarTelemetryID), SuggestedGear: -1}
	for i := range p.Cars {
		p.Cars[i] = CarTelemetry{
			Speed:                   uint16(200 + i),
			Throttle:                0.75,
			Steer:                   -0.25,
			Brake:                   0.1,
			Gear:                    int8(i % 9),
			EngineRPM:               11000,
			DRS:                     1,
			BrakesTemperature:       [4]uint16{500, 510, 600, 610},
			TyresSurfaceTemperature: [4]uint8{90, 91, 92, 93},
			TyresInnerTemperature:   [4]uint8{100, 101, 102, 103},
			EngineTemperature:       110,
			TyresPressure:           [4]float32{22.5, 22.6, 23.1, 23.2},
			SurfaceType:             [4]uint8{0, 0, 1, 1},
		}
	}
	return p
}

func sampleCarStatus(layout CarStatusLayout) *CarStatusPacket {
	p := &CarStatusPacket{Header: sampleHeader(CarStatusID), Layout: layout}
	for i := range p.Cars {
		p.Cars[i] = CarStatusData{
			FuelInTank:              float32(50 - i),
			FuelCapacity:            110,
			MaxRPM:                  13000,
			VisualTyreCompound:      16,
			ActualTyreCompound:      18,
			TyresAgeLaps:            uint8(i),
			VehicleFIAFlags:         -1,
			ERSStoreEnergy:          4e6,
			ERSDeployMode:           2,
			ERSHarvestedThisLapMGUK: 1000,
			ERSDeployedThisLap:      2000,
			NetworkPaused:           1,
		}
	}
	return p
}

func sampleCarDamage() *CarDamagePacket {
	p := &CarDamagePacket{Header: sampleHeader(CarDamageID)}
	for i := range p.Cars {
		p.Cars[i] = CarDamage{
			TyresWear:            [4]float32{1, 2, 3, 4},
			FrontLeftWingDamage:  10,
			FrontRightWingDamage: 21,
			EngineSeized:         uint8(i % 2),
		}
	}
	return p
}

func sampleFinalClassification() *FinalClassificationPacket {
	p := &FinalClassificationPacket{Header: sampleHeader(FinalClassificationID), NumCars: 20}
	for i := range p.Cars {
		p.Cars[i] = Classification{
			Position:          uint8(i + 1),
			NumLaps:           57,
			BestLapTimeMS:     91234,
			TotalRaceTime:     5432.125,
			NumTyreStints:     2,
			TyreStintsActual:  [8]uint8{18, 17},
			TyreStintsVisual:  [8]uint8{16, 17},
			TyreStintsEndLaps: [8]uint8{20, 57},
		}
	}
	return p
}

func allSamples() []Encoder {
	return []Encoder{
		sampleMotion(),
		sampleMotionEx(),
		sampleSession(),
		sampleLapData(),
		sampleParticipants(),
		sampleCarTelemetry(),
		sampleCarStatus(Layout55),
		sampleCarDamage(),
		sampleFinalClassification(),
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	tests := []Header{
		sampleHeader(MotionID),
		{PacketFormat: SupportedFormat},
		{
			PacketFormat: SupportedFormat, PacketID: TimeTrialID,
			SessionUID: ^uint64(0), SessionTime: -1, FrameIdentifier: ^uint32(0),
			OverallFrameIdentifier: 1, PlayerCarIndex: 21, SecondaryPlayerCarIndex: 255,
		},
	}
	for _, h := range tests {
		b := h.AppendTo(nil)
		assert.Len(t, b, HeaderSize)
		got, err := DecodeHeader(b)
		require.NoError(t, err)
		if diff := cmp.Diff(h, got); diff != "" {
			t.Errorf("DecodeHeader() mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	valid := sampleHeader(MotionID).AppendTo(nil)
	wrongFormat := sampleHeader(MotionID)
	wrongFormat.PacketFormat = 2023

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrInvalidHeader},
		{"one byte short", valid[:HeaderSize-1], ErrInvalidHeader},
		{"wrong format", wrongFormat.AppendTo(nil), ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestBodySizes(t *testing.T) {
	tests := []struct {
		p    Encoder
		want int
	}{
		{sampleMotion(), HeaderSize + MaxCars*carMotionSize},
		{sampleMotionEx(), HeaderSize + motionExSize},
		{sampleLapData(), HeaderSize + MaxCars*lapDataSize + 2},
		{sampleParticipants(), HeaderSize + 1 + MaxCars*participantSize},
		{sampleCarTelemetry(), HeaderSize + MaxCars*carTelemetrySize + 3},
		{sampleCarStatus(Layout55), HeaderSize + MaxCars*carStatusSize55},
		{sampleCarStatus(Layout58), HeaderSize + MaxCars*carStatusSize58},
		{sampleCarDamage(), HeaderSize + MaxCars*carDamageSize},
		{sampleFinalClassification(), HeaderSize + 1 + MaxCars*classificationSize},
		{sampleSession(), HeaderSize + 21 + 2*marshalZoneSize + 1 + 2*weatherForecastSize},
	}
	for _, tt := range tests {
		t.Run(tt.p.ID().String(), func(t *testing.T) {
			assert.Len(t, Encode(tt.p), tt.want)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	dec := NewDecoder()
	for _, p := range allSamples() {
		t.Run(p.ID().String(), func(t *testing.T) {
			got, err := dec.Decode(Encode(p))
			require.NoError(t, err)
			if diff := cmp.Diff(p, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// every truncation of a datagram must fail cleanly.
// Session packets are the exception once the mandatory part is complete.
func TestTruncation(t *testing.T) {
	dec := NewDecoder()
	for _, p := range allSamples() {
		t.Run(p.ID().String(), func(t *testing.T) {
			data := Encode(p)
			mandatory := len(data)
			if s, ok := p.(*SessionPacket); ok {
				mandatory = len(Encode(&SessionPacket{
					Header: s.Header, MarshalZones: s.MarshalZones,
				}))
			}
			for n := range len(data) {
				buf := make([]byte, n)
				copy(buf, data)
				got, err := dec.Decode(buf)
				switch {
				case n < HeaderSize:
					assert.ErrorIs(t, err, ErrInvalidHeader, "len %d", n)
				case n < mandatory:
					assert.ErrorIs(t, err, ErrShortPacket, "len %d", n)
					assert.Nil(t, got)
				default:
					assert.NoError(t, err, "len %d", n)
				}
			}
		})
	}
}

func TestIgnoredPacketTypes(t *testing.T) {
	dec := NewDecoder()
	for _, id := range []PacketID{
		EventID, CarSetupsID, LobbyInfoID, SessionHistoryID,
		TyreSetsID, TimeTrialID, PacketID(200),
	} {
		data := sampleHeader(id).AppendTo(nil)
		got, err := dec.Decode(data)
		assert.True(t, errors.Is(err, ErrIgnored), "id %s", id)
		assert.Nil(t, got)
		assert.False(t, dec.Handles(id))
	}
}

func TestSessionForecast(t *testing.T) {
	dec := NewDecoder()
	full := Encode(sampleSession())
	withoutSection := Encode(&SessionPacket{
		Header:       sampleHeader(SessionID),
		MarshalZones: sampleSession().MarshalZones,
	})

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"complete", full, 2},
		{"section absent", withoutSection, 0},
		{"count only", full[:len(withoutSection)+1], 0},
		{"second record truncated", full[:len(full)-1], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dec.Decode(tt.data)
			require.NoError(t, err)
			s := got.(*SessionPacket)
			assert.NotNil(t, s.Forecast)
			assert.Len(t, s.Forecast, tt.want)
		})
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain", []byte("HAMILTON\x00\x00\x00"), "HAMILTON"},
		{"utf8", []byte("PÉREZ\x00"), "PÉREZ"},
		{"trailing control", []byte("VERSTAPPEN\n\t\x00junk"), "VERSTAPPEN"},
		{"no terminator", []byte("ABCDEF"), "ABCDEF"},
		{"invalid utf8", []byte{0xff, 0xfe, 'A', 0}, ""},
		{"empty", make([]byte, nameSize), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeName(tt.data))
		})
	}
}

func TestParticipantInvalidNameKeepsPacket(t *testing.T) {
	data := Encode(sampleParticipants())
	// first name starts after header, numActiveCars and 7 single byte fields
	data[HeaderSize+1+7] = 0xff
	got, err := NewDecoder().Decode(data)
	require.NoError(t, err)
	p := got.(*ParticipantsPacket)
	assert.Equal(t, "", p.Cars[0].Name)
	assert.Equal(t, "Driver", p.Cars[1].Name)
}

func TestCarStatusLayouts(t *testing.T) {
	p58 := sampleCarStatus(Layout58)
	p55 := sampleCarStatus(Layout55)

	tests := []struct {
		name       string
		layout     CarStatusLayout
		data       []byte
		wantLayout CarStatusLayout
		wantErr    error
	}{
		{"55 with 55", Layout55, Encode(p55), Layout55, nil},
		{"58 with 58", Layout58, Encode(p58), Layout58, nil},
		{"auto with 58", LayoutAuto, Encode(p58), Layout58, nil},
		{"auto with 55", LayoutAuto, Encode(p55), Layout55, nil},
		{"58 with 55 data", Layout58, Encode(p55), Layout55, ErrShortPacket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(WithCarStatusLayout(tt.layout))
			got, err := dec.Decode(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			s := got.(*CarStatusPacket)
			assert.Equal(t, tt.wantLayout, s.Layout)
			if diff := cmp.Diff(p55.Cars, s.Cars); diff != "" {
				t.Errorf("cars mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCarStatusLayout(t *testing.T) {
	for in, want := range map[string]CarStatusLayout{
		"": Layout55, "55": Layout55, "58": Layout58, "AUTO": LayoutAuto,
	} {
		got, err := ParseCarStatusLayout(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCarStatusLayout("57")
	assert.Error(t, err)
}

func TestClassificationStints(t *testing.T) {
	c := sampleFinalClassification().Cars[0]
	assert.Equal(t, []Stint{
		{ActualCompound: 18, VisualCompound: 16, EndLap: 20},
		{ActualCompound: 17, VisualCompound: 17, EndLap: 57},
	}, c.Stints())

	c.NumTyreStints = 200
	assert.Len(t, c.Stints(), maxTyreStints)
	c.NumTyreStints = 0
	assert.Empty(t, c.Stints())
}

func TestHelpers(t *testing.T) {
	l := CarLapData{
		Sector1TimeMSPart: 20000, Sector2TimeMinutesPart: 1, Sector2TimeMSPart: 5000,
		DeltaToRaceLeaderMinutes: 2, DeltaToRaceLeaderMSPart: 345,
		DeltaToCarInFrontMSPart: 1200,
	}
	assert.Equal(t, uint32(20000), l.Sector1MS())
	assert.Equal(t, uint32(65000), l.Sector2MS())
	assert.Equal(t, uint32(120345), l.DeltaToRaceLeaderMS())
	assert.Equal(t, uint32(1200), l.DeltaToCarInFrontMS())

	m := sampleMotionEx()
	assert.InDelta(t, 0.10, m.FrontSlip(), 1e-6)
	assert.InDelta(t, 0.02, m.RearSlip(), 1e-6)

	d := CarDamage{FrontLeftWingDamage: 10, FrontRightWingDamage: 21}
	assert.Equal(t, uint8(15), d.FrontWingDamage())

	h := sampleHeader(MotionID)
	assert.True(t, h.PlayerIndexValid())
	h.PlayerCarIndex = MaxCars
	assert.False(t, h.PlayerIndexValid())
}
