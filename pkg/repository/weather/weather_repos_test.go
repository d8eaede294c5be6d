package weather

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1telemetry-service-go/testsupport/basedata"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/testdb"
)

func TestCreateIsIdempotent(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	first := basedata.SampleWeather(0)
	second := basedata.SampleWeather(20 * time.Second)
	second.Forecast = nil

	assert.NilError(t, Create(ctx, pool, first))
	assert.NilError(t, Create(ctx, pool, first))
	assert.NilError(t, Create(ctx, pool, second))

	got, err := LoadBySession(ctx, pool, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.DeepEqual(t, got[0].Forecast, first.Forecast)
	assert.Assert(t, got[1].Forecast == nil)
	assert.Equal(t, got[0].TrackTemp, int8(32))
}
