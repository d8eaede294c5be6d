package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/capture"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
)

var allLaps bool

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <capture file>",
		Short: "decodes a capture file and prints a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cmdutil.SetupLogger(); err != nil {
				return err
			}
			layout, err := packet.ParseCarStatusLayout(config.CarStatusLayout)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			s, err := summarize(f, packet.NewDecoder(packet.WithCarStatusLayout(layout)))
			if err != nil {
				return err
			}
			s.File = args[0]
			if !allLaps {
				s.Laps = lo.Filter(s.Laps, func(l LapSummary, _ int) bool {
					return l.Vehicle == s.PlayerCarIndex
				})
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(s)
		},
	}
	cmd.Flags().StringVar(&config.CarStatusLayout,
		"car-status-layout",
		"55",
		"record layout of car status packets (55, 58, auto)")
	cmd.Flags().BoolVar(&allLaps, "all-laps", false, "list laps of all vehicles")
	return cmd
}

type (
	Summary struct {
		File           string            `yaml:"file,omitempty"`
		Version        string            `yaml:"version"`
		Frames         int               `yaml:"frames"`
		Duration       time.Duration     `yaml:"duration"`
		Failures       map[string]int    `yaml:"failures,omitempty"`
		Packets        map[string]uint64 `yaml:"packets"`
		Dropped        uint64            `yaml:"dropped"`
		PlayerCarIndex uint8             `yaml:"playerCarIndex"`
		Sessions       []SessionSummary  `yaml:"sessions"`
		Laps           []LapSummary      `yaml:"laps,omitempty"`
		Classification []PositionSummary `yaml:"classification,omitempty"`
		WeatherSamples int               `yaml:"weatherSamples"`
	}
	SessionSummary struct {
		UID         string `yaml:"uid"`
		SessionType uint8  `yaml:"sessionType"`
		TrackID     int8   `yaml:"trackId"`
		TotalLaps   uint8  `yaml:"totalLaps"`
	}
	LapSummary struct {
		Vehicle uint8  `yaml:"vehicle"`
		Lap     uint8  `yaml:"lap"`
		Time    string `yaml:"time"`
		Sectors string `yaml:"sectors"`
		Valid   bool   `yaml:"valid"`
		Samples int    `yaml:"samples,omitempty"`
	}
	PositionSummary struct {
		Position uint8  `yaml:"position"`
		Vehicle  uint8  `yaml:"vehicle"`
		Driver   string `yaml:"driver"`
		Laps     uint8  `yaml:"laps"`
		BestLap  string `yaml:"bestLap"`
		Points   uint8  `yaml:"points"`
	}
)

// collector keeps everything the aggregator hands to persistence.
type collector struct {
	mu       sync.Mutex
	sessions []model.SessionInfo
	laps     []model.LapRecord
	weather  int
	classif  []model.Classification
}

func (c *collector) UpsertSession(_ context.Context, s model.SessionInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := lo.IndexOf(lo.Map(c.sessions, func(x model.SessionInfo, _ int) uint64 {
		return x.SessionUID
	}), s.SessionUID)
	if idx >= 0 {
		c.sessions[idx] = s
		return
	}
	c.sessions = append(c.sessions, s)
}

func (c *collector) LapCompleted(_ context.Context, l model.LapRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.laps = append(c.laps, l)
}

func (c *collector) WeatherSampled(context.Context, model.WeatherSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weather++
}

//nolint:whitespace // can't make both editor and linter happy
func (c *collector) ClassificationFinal(
	_ context.Context,
	cl model.Classification,
) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classif = append(c.classif, cl)
}

// summarize replays all frames of r through a fresh aggregator using the
// recorded receive times as clock.
func summarize(r io.Reader, dec *packet.Decoder) (*Summary, error) {
	cr, err := capture.NewReader(r)
	if err != nil {
		return nil, err
	}
	var current time.Time
	coll := &collector{}
	agg := livestate.New(
		livestate.WithGateway(coll),
		livestate.WithClock(func() time.Time { return current }),
	)
	defer agg.Close()

	ret := &Summary{Version: cr.Version(), Failures: map[string]int{}}
	var first time.Time
	for {
		f, nErr := cr.Next()
		if errors.Is(nErr, io.EOF) {
			break
		}
		if nErr != nil {
			return nil, nErr
		}
		if first.IsZero() {
			first = f.Received
		}
		current = f.Received
		ret.Frames++
		p, dErr := dec.Decode(f.Data)
		if dErr != nil {
			ret.Failures[failureKind(dErr)]++
			continue
		}
		agg.Apply(p)
	}
	ret.Duration = current.Sub(first)
	if len(ret.Failures) == 0 {
		ret.Failures = nil
	}
	fill(ret, agg.Snapshot(), coll)
	log.Debug("capture summarized", log.Int("frames", ret.Frames))
	return ret, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, packet.ErrIgnored):
		return "ignored"
	case errors.Is(err, packet.ErrShortPacket):
		return "short"
	case errors.Is(err, packet.ErrUnsupportedFormat):
		return "unsupportedFormat"
	default:
		return "malformed"
	}
}

func fill(s *Summary, snap *livestate.Snapshot, coll *collector) {
	s.Packets = snap.Packets
	s.Dropped = snap.Dropped
	s.PlayerCarIndex = snap.Session.PlayerCarIndex
	s.WeatherSamples = coll.weather
	s.Sessions = lo.Map(coll.sessions, func(x model.SessionInfo, _ int) SessionSummary {
		return SessionSummary{
			UID:         model.SessionKey(x.SessionUID),
			SessionType: x.SessionType,
			TrackID:     x.TrackID,
			TotalLaps:   x.TotalLaps,
		}
	})
	s.Laps = lo.Map(coll.laps, func(l model.LapRecord, _ int) LapSummary {
		return LapSummary{
			Vehicle: l.VehicleIndex,
			Lap:     l.LapNumber,
			Time:    livestate.FormatLapTime(l.LapTimeMS),
			Sectors: fmt.Sprintf("%s %s %s",
				livestate.FormatLapTime(l.Sector1MS),
				livestate.FormatLapTime(l.Sector2MS),
				livestate.FormatLapTime(l.Sector3MS)),
			Valid:   l.Valid,
			Samples: len(l.Trace),
		}
	})
	s.Classification = lo.Map(coll.classif, func(c model.Classification, _ int) PositionSummary {
		return PositionSummary{
			Position: c.Position,
			Vehicle:  c.VehicleIndex,
			Driver:   c.DriverName,
			Laps:     c.NumLaps,
			BestLap:  livestate.FormatLapTime(c.BestLapTimeMS),
			Points:   c.Points,
		}
	})
}
