package testdb

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"

	tcpg "github.com/mpapenbr/f1telemetry-service-go/testsupport/tcpostgres"
)

// InitTestDb returns a pool to an empty, migrated database.
// Without TESTDB_URL a postgres container is used; the test is skipped
// if no container runtime is available.
func InitTestDb(t *testing.T) *pgxpool.Pool {
	t.Helper()
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDb()
	} else {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		pool = tcpg.SetupTestDb()
	}
	if err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		tcpg.ClearAllTables(pool)
		return nil
	}); err != nil {
		log.Fatalf("initTestDb: %v\n", err)
	}
	return pool
}
