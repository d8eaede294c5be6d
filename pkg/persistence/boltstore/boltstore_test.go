package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)

	require.NoError(t, s.UpsertSession(ctx, model.SessionInfo{SessionUID: 1, TrackID: 3, CreatedAt: at}))
	require.NoError(t, s.UpsertSession(ctx, model.SessionInfo{SessionUID: 1, TrackID: 4, CreatedAt: at}))
	require.NoError(t, s.UpsertSession(ctx, model.SessionInfo{SessionUID: 2, CreatedAt: at}))

	lap := model.LapRecord{
		SessionUID: 1, VehicleIndex: 0, LapNumber: 1, LapTimeMS: 90000,
		CompletedAt: at, Trace: []model.TelemetrySample{{Distance: 0.5, Speed: 300}},
	}
	require.NoError(t, s.LapCompleted(ctx, lap))
	require.NoError(t, s.LapCompleted(ctx, model.LapRecord{SessionUID: 2, LapNumber: 1, CompletedAt: at}))
	require.NoError(t, s.WeatherSampled(ctx, model.WeatherSample{SessionUID: 1, CapturedAt: at}))
	require.NoError(t, s.ClassificationFinal(ctx,
		model.Classification{SessionUID: 1, Position: 1, Stints: []model.Stint{{EndLap: 5}}}))

	sessions, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, int8(4), sessions[0].TrackID, "upsert replaces")

	laps, err := s.Laps(1)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	if diff := cmp.Diff(lap, laps[0]); diff != "" {
		t.Errorf("lap mismatch (-want +got):\n%s", diff)
	}

	weather, err := s.Weather(1)
	require.NoError(t, err)
	assert.Len(t, weather, 1)

	cls, err := s.Classification(1)
	require.NoError(t, err)
	require.Len(t, cls, 1)
	assert.Equal(t, uint8(5), cls[0].Stints[0].EndLap)

	none, err := s.Laps(3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fts.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.UpsertSession(context.Background(), model.SessionInfo{SessionUID: 9}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	sessions, err := s.Sessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestReader(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fts.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, s.UpsertSession(ctx, model.SessionInfo{
			SessionUID: uint64(i + 1), CreatedAt: at.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.LapCompleted(ctx, model.LapRecord{
		SessionUID: 2, LapNumber: 1, Trace: []model.TelemetrySample{{Distance: 0.1}},
	}))

	recent, err := s.RecentSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(3), recent[0].SessionUID)
	assert.Equal(t, uint64(2), recent[1].SessionUID)

	laps, err := s.SessionLaps(ctx, 2)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	assert.Nil(t, laps[0].Trace)
}
