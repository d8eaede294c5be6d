//nolint:errcheck // ok for this test code
package session_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository/session"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/basedata"
	"github.com/mpapenbr/f1telemetry-service-go/testsupport/testdb"
)

func TestUpsertAndLoad(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	sample := basedata.CreateBaseData(pool)

	got, err := session.LoadByUID(ctx, pool, sample.SessionUID)
	assert.NilError(t, err)
	assert.Equal(t, got.SessionUID, basedata.SampleSessionUID)
	assert.Equal(t, got.TrackLength, sample.TrackLength)
	assert.Assert(t, got.CreatedAt.Equal(sample.CreatedAt))

	update := *sample
	update.TotalLaps = 50
	update.CreatedAt = sample.CreatedAt.Add(1000)
	assert.NilError(t, session.Upsert(ctx, pool, &update))

	got, err = session.LoadByUID(ctx, pool, sample.SessionUID)
	assert.NilError(t, err)
	assert.Equal(t, got.TotalLaps, uint8(50))
	assert.Assert(t, got.CreatedAt.Equal(sample.CreatedAt), "created_at is kept")
}

func TestLoadUnknown(t *testing.T) {
	pool := testdb.InitTestDb(t)
	_, err := session.LoadByUID(context.Background(), pool, 1)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestLoadLatest(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	first := basedata.CreateBaseData(pool)
	second := *first
	second.SessionUID = 2
	second.CreatedAt = first.CreatedAt.Add(3600 * 1e9)
	assert.NilError(t, session.Upsert(ctx, pool, &second))

	got, err := session.LoadLatest(ctx, pool, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[0].SessionUID, uint64(2))
}

func TestDeleteByUID(t *testing.T) {
	pool := testdb.InitTestDb(t)
	sample := basedata.CreateBaseData(pool)
	n, err := session.DeleteByUID(context.Background(), pool, sample.SessionUID)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	n, err = session.DeleteByUID(context.Background(), pool, sample.SessionUID)
	assert.NilError(t, err)
	assert.Equal(t, n, 0)
}
