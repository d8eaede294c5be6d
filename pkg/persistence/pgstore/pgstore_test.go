package pgstore

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	laprepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/lap"
	sessionrepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/session"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/basedata"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/testdb"
)

func TestLapCreatesMissingSession(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	s := New(pool)

	assert.NilError(t, s.LapCompleted(ctx, *basedata.SampleLap(0, 1)))
	got, err := sessionrepos.LoadByUID(ctx, pool, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.Equal(t, got.TrackID, int8(-1))

	// the real session data replaces the placeholder
	assert.NilError(t, s.UpsertSession(ctx, *basedata.SampleSession()))
	got, err = sessionrepos.LoadByUID(ctx, pool, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.Equal(t, got.TrackID, int8(7))
}

func TestThroughAsync(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	a := persistence.NewAsync(New(pool))

	a.UpsertSession(ctx, *basedata.SampleSession())
	a.LapCompleted(ctx, *basedata.SampleLap(3, 1))
	a.LapCompleted(ctx, *basedata.SampleLap(3, 1))
	a.WeatherSampled(ctx, *basedata.SampleWeather(time.Minute))
	a.ClassificationFinal(ctx, *basedata.SampleClassification(3, 1))
	assert.NilError(t, a.Close(ctx))
	assert.Equal(t, a.Stats(), persistence.AsyncStats{Written: 5})

	laps, err := laprepos.LoadBySession(ctx, pool, basedata.SampleSessionUID, false)
	assert.NilError(t, err)
	assert.Equal(t, len(laps), 1)
}

func TestReader(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	s := New(pool)

	assert.NilError(t, s.UpsertSession(ctx, *basedata.SampleSession()))
	lap := basedata.SampleLap(0, 1)
	lap.Trace = []model.TelemetrySample{{Distance: 0.5, Speed: 250}}
	assert.NilError(t, s.LapCompleted(ctx, *lap))

	sessions, err := s.RecentSessions(ctx, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 1)
	assert.Equal(t, sessions[0].SessionUID, basedata.SampleSessionUID)

	laps, err := s.SessionLaps(ctx, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.Equal(t, len(laps), 1)
	assert.Assert(t, laps[0].Trace == nil)
}
