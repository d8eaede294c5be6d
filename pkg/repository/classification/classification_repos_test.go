package classification

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/basedata"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/testdb"
)

func TestUpsertReplacesStints(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	winner := basedata.SampleClassification(4, 1)
	second := basedata.SampleClassification(0, 2)
	second.Stints = nil

	for _, c := range []*model.Classification{second, winner} {
		assert.NilError(t, pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			return Upsert(ctx, tx, c)
		}))
	}
	got, err := LoadBySession(ctx, pool, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.DeepEqual(t, got[0], winner)
	assert.Equal(t, len(got[1].Stints), 0)

	update := *winner
	update.Stints = winner.Stints[:1]
	assert.NilError(t, Upsert(ctx, pool, &update))
	got, err = LoadBySession(ctx, pool, basedata.SampleSessionUID)
	assert.NilError(t, err)
	assert.DeepEqual(t, got[0].Stints, update.Stints)
}
