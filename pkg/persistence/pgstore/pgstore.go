// Package pgstore writes session data to postgres.
package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository"
	classrepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/classification"
	laprepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/lap"
	sessionrepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/session"
	weatherrepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/weather"
)

var (
	_ persistence.Store  = (*Store)(nil)
	_ persistence.Reader = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) UpsertSession(ctx context.Context, info model.SessionInfo) error {
	return sessionrepos.Upsert(ctx, s.pool, &info)
}

// LapCompleted makes sure the session row exists before the lap is stored.
func (s *Store) LapCompleted(ctx context.Context, lap model.LapRecord) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.ensureSession(ctx, tx, lap.SessionUID, lap.CompletedAt); err != nil {
			return err
		}
		_, err := laprepos.Upsert(ctx, tx, &lap)
		return err
	})
}

func (s *Store) WeatherSampled(ctx context.Context, w model.WeatherSample) error {
	return weatherrepos.Create(ctx, s.pool, &w)
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Store) ClassificationFinal(
	ctx context.Context,
	c model.Classification,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return classrepos.Upsert(ctx, tx, &c)
	})
}

// ensureSession inserts a minimal session row if the session upsert was
// lost, e.g. dropped by a full queue.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Store) ensureSession(
	ctx context.Context,
	tx pgx.Tx,
	uid uint64,
	at time.Time,
) error {
	_, err := tx.Exec(ctx, `
	insert into session (
		session_uid, session_type, track_id, track_length, total_laps,
		session_duration, network_game, player_car_index, created_at
	) values ($1,0,-1,0,0,0,false,0,$2)
	on conflict (session_uid) do nothing
	`, repository.DBUID(uid), at)
	return err
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Store) RecentSessions(
	ctx context.Context,
	limit int,
) ([]model.SessionInfo, error) {
	ret, err := sessionrepos.LoadLatest(ctx, s.pool, limit)
	if err != nil {
		return nil, err
	}
	return lo.FromSlicePtr(ret), nil
}

// SessionLaps returns the laps of a session without traces.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Store) SessionLaps(
	ctx context.Context,
	sessionUID uint64,
) ([]model.LapRecord, error) {
	ret, err := laprepos.LoadBySession(ctx, s.pool, sessionUID, false)
	if err != nil {
		return nil, err
	}
	return lo.FromSlicePtr(ret), nil
}
