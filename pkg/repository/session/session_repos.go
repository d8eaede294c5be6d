//nolint:whitespace // can't make both editor and linter happy
package session

import (
	"context"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository"
)

// Upsert creates the session or updates its descriptive fields.
// created_at keeps the value of the first insert.
func Upsert(ctx context.Context, conn repository.Querier, s *model.SessionInfo) error {
	_, err := conn.Exec(ctx, `
	insert into session (
		session_uid, session_type, track_id, track_length, total_laps,
		session_duration, network_game, player_car_index, created_at
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	on conflict (session_uid) do update set
		session_type=excluded.session_type,
		track_id=excluded.track_id,
		track_length=excluded.track_length,
		total_laps=excluded.total_laps,
		session_duration=excluded.session_duration,
		network_game=excluded.network_game,
		player_car_index=excluded.player_car_index,
		updated_at=now()
	`,
		repository.DBUID(s.SessionUID), s.SessionType, s.TrackID, s.TrackLength,
		s.TotalLaps, s.SessionDuration, s.NetworkGame, s.PlayerCarIndex,
		s.CreatedAt,
	)
	return err
}

func LoadByUID(ctx context.Context, conn repository.Querier, uid uint64) (
	*model.SessionInfo, error,
) {
	row := conn.QueryRow(ctx, selector+" where session_uid=$1", repository.DBUID(uid))
	var item model.SessionInfo
	if err := scan(&item, row); err != nil {
		return nil, err
	}
	return &item, nil
}

// LoadLatest returns up to limit sessions, most recent first.
func LoadLatest(ctx context.Context, conn repository.Querier, limit int) (
	[]*model.SessionInfo, error,
) {
	rows, err := conn.Query(ctx,
		selector+" order by created_at desc limit $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.SessionInfo, 0)
	for rows.Next() {
		var item model.SessionInfo
		if err := scan(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// DeleteByUID removes the session and everything recorded for it.
// Returns the number of deleted session rows.
func DeleteByUID(ctx context.Context, conn repository.Querier, uid uint64) (int, error) {
	id := repository.DBUID(uid)
	for _, stmt := range []string{
		"delete from classification where session_uid=$1",
		"delete from weather where session_uid=$1",
		"delete from lap where session_uid=$1",
	} {
		if _, err := conn.Exec(ctx, stmt, id); err != nil {
			return 0, err
		}
	}
	cmdTag, err := conn.Exec(ctx, "delete from session where session_uid=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

const selector = `select session_uid, session_type, track_id, track_length,
	total_laps, session_duration, network_game, player_car_index, created_at
	from session`

type scanner interface {
	Scan(dest ...any) error
}

func scan(s *model.SessionInfo, row scanner) error {
	var uid int64
	if err := row.Scan(&uid, &s.SessionType, &s.TrackID, &s.TrackLength,
		&s.TotalLaps, &s.SessionDuration, &s.NetworkGame, &s.PlayerCarIndex,
		&s.CreatedAt); err != nil {
		return err
	}
	s.SessionUID = repository.FromDBUID(uid)
	return nil
}
