package postgres

import (
	"context"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1telemetry-service-go/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

// WithTracer logs every query with logger at level.
func WithTracer(logger *log.Logger, level log.Level) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = &myQueryTracer{log: logger, level: level}
	}
}

// WithOtlpTracer creates spans for queries. Replaces a tracer set by WithTracer.
func WithOtlpTracer() PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	}
}

func InitWithUrl(url string, opts ...PoolConfigOption) *pgxpool.Pool {
	pool, err := NewPool(context.Background(), url, opts...)
	if err != nil {
		log.Fatal("Unable to init database pool", log.ErrorField(err))
	}
	return pool
}

// NewPool creates the pool and checks the connection.
//
//nolint:whitespace // can't make both editor and linter happy
func NewPool(
	ctx context.Context,
	url string,
	opts ...PoolConfigOption,
) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type myQueryTracer struct {
	log   *log.Logger
	level log.Level
}

//nolint:whitespace // can't make both editor and linter happy
func (tracer *myQueryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	if ce := tracer.log.Zap().Check(tracer.level, "Executing"); ce != nil {
		ce.Write(log.String("sql", data.SQL), log.Any("args", data.Args))
	}
	return ctx
}

//nolint:whitespace // can't make both editor and linter happy
func (tracer *myQueryTracer) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	if data.Err != nil {
		tracer.log.Warn("Query failed",
			log.String("cmd", data.CommandTag.String()),
			log.ErrorField(data.Err))
	}
}
