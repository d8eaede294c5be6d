package inspect

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/capture"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
)

const uid = uint64(0x1234)

func header() packet.Header {
	return packet.Header{PacketFormat: packet.SupportedFormat, SessionUID: uid}
}

func lapData(lap uint8, last uint32) *packet.LapDataPacket {
	p := &packet.LapDataPacket{Header: header()}
	p.Cars[0] = packet.CarLapData{
		CurrentLapNum:     lap,
		CarPosition:       1,
		Sector1TimeMSPart: 25000,
		Sector2TimeMSPart: 26000,
		LastLapTimeMS:     last,
		LapDistance:       100,
	}
	return p
}

func buildCapture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	w, err := capture.NewWriter(buf)
	require.NoError(t, err)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	parts := &packet.ParticipantsPacket{Header: header(), NumActiveCars: 2}
	parts.Cars[0].Name = "Player"
	parts.Cars[1].Name = "Rival"
	fc := &packet.FinalClassificationPacket{Header: header(), NumCars: 2}
	fc.Cars[0] = packet.Classification{Position: 1, NumLaps: 1, BestLapTimeMS: 78500, Points: 25}
	fc.Cars[1] = packet.Classification{Position: 2, NumLaps: 1, Points: 18}

	frames := []struct {
		offset time.Duration
		data   []byte
	}{
		{0, packet.Encode(&packet.SessionPacket{
			Header: header(), TrackLength: 5000, TrackID: 3, SessionType: 10, TotalLaps: 1,
		})},
		{time.Second, packet.Encode(parts)},
		{2 * time.Second, packet.Encode(lapData(1, 0))},
		{3 * time.Second, []byte{0xe8, 0x07, 0x18}},
		{80 * time.Second, packet.Encode(lapData(2, 78500))},
		{90 * time.Second, packet.Encode(fc)},
	}
	for _, f := range frames {
		require.NoError(t, w.Write(start.Add(f.offset), f.data))
	}
	require.NoError(t, w.Flush())
	return buf
}

func TestSummarize(t *testing.T) {
	s, err := summarize(buildCapture(t), packet.NewDecoder())
	require.NoError(t, err)

	assert.Equal(t, capture.FormatVersion, s.Version)
	assert.Equal(t, 6, s.Frames)
	assert.Equal(t, 90*time.Second, s.Duration)
	assert.Equal(t, map[string]int{"malformed": 1}, s.Failures)
	assert.Equal(t, uint64(2), s.Packets["lapData"])

	require.Len(t, s.Sessions, 1)
	assert.Equal(t, "0000000000001234", s.Sessions[0].UID)
	assert.Equal(t, int8(3), s.Sessions[0].TrackID)
	assert.GreaterOrEqual(t, s.WeatherSamples, 1)

	require.Len(t, s.Laps, 1)
	assert.Equal(t, LapSummary{
		Vehicle: 0, Lap: 1, Time: "1:18.500",
		Sectors: "0:25.000 0:26.000 0:27.500", Valid: true,
	}, s.Laps[0])

	require.Len(t, s.Classification, 2)
	assert.Equal(t, "Player", s.Classification[0].Driver)
	assert.Equal(t, "1:18.500", s.Classification[0].BestLap)
	assert.Equal(t, uint8(2), s.Classification[1].Position)
}

func TestSummaryYaml(t *testing.T) {
	s, err := summarize(buildCapture(t), packet.NewDecoder())
	require.NoError(t, err)
	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "1:18.500"), string(out))
}

func TestSummarizeRejectsGarbage(t *testing.T) {
	_, err := summarize(strings.NewReader("no capture here\n"), packet.NewDecoder())
	assert.ErrorIs(t, err, capture.ErrNoCapture)
}
