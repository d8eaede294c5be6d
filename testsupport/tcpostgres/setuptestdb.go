//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/db/migrate"
	database "github.com/mpapenbr/f1telemetry-service-go/pkg/db/postgres"
)

const (
	DefaultImage  = "postgres:16-alpine"
	containerName = "f1telemetry-service-test"
	dbPassword    = "password"
)

// SetupTestDb starts (or reuses) the shared postgres container, applies the
// migrations and returns a pool to it. TESTDB_IMAGE overrides the image.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	image := DefaultImage
	if v := os.Getenv("TESTDB_IMAGE"); v != "" {
		image = v
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Name:         containerName,
				Image:        image,
				ExposedPorts: []string{port.Port()},
				Cmd:          []string{"postgres", "-c", "fsync=off"},
				Env: map[string]string{
					"POSTGRES_USER":     "postgres",
					"POSTGRES_PASSWORD": dbPassword,
					"POSTGRES_DB":       "postgres",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute),
			},
			Started: true,
			Reuse:   true,
		})
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbUrl := fmt.Sprintf("postgresql://postgres:%s@%s:%s/postgres",
		dbPassword, host, containerPort.Port())

	return setupWithUrl(dbUrl)
}

// SetupExternalTestDb uses the database referenced by TESTDB_URL.
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithUrl(os.Getenv("TESTDB_URL"))
}

func setupWithUrl(dbUrl string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbUrl); err != nil {
		log.Fatal(err)
	}
	return database.InitWithUrl(dbUrl)
}

// ClearAllTables empties all tables, children first.
func ClearAllTables(pool *pgxpool.Pool) {
	for _, table := range []string{
		"classification_stint", "classification", "weather", "lap", "session",
	} {
		pool.Exec(context.Background(), "delete from "+table)
	}
}
