//nolint:whitespace // can't make both editor and linter happy
package lap

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository"
)

// Upsert stores a completed lap. A lap already stored for the same
// session, vehicle and lap number is replaced but keeps its id.
// Returns the id of the row.
func Upsert(ctx context.Context, conn repository.Querier, l *model.LapRecord) (
	uuid.UUID, error,
) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	var trace any
	if len(l.Trace) > 0 {
		trace = l.Trace
	}
	row := conn.QueryRow(ctx, `
	insert into lap (
		id, session_uid, vehicle_index, lap_number, lap_time_ms,
		sector1_ms, sector2_ms, sector3_ms, valid, completed_at, trace
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	on conflict (session_uid, vehicle_index, lap_number) do update set
		lap_time_ms=excluded.lap_time_ms,
		sector1_ms=excluded.sector1_ms,
		sector2_ms=excluded.sector2_ms,
		sector3_ms=excluded.sector3_ms,
		valid=excluded.valid,
		completed_at=excluded.completed_at,
		trace=coalesce(excluded.trace, lap.trace)
	returning id
	`,
		id, repository.DBUID(l.SessionUID), l.VehicleIndex, l.LapNumber, l.LapTimeMS,
		l.Sector1MS, l.Sector2MS, l.Sector3MS, l.Valid, l.CompletedAt, trace,
	)
	var ret uuid.UUID
	if err := row.Scan(&ret); err != nil {
		return uuid.Nil, err
	}
	return ret, nil
}

// LoadBySession returns the laps of a session ordered by vehicle and lap.
// Traces are only loaded if withTrace is set.
func LoadBySession(
	ctx context.Context,
	conn repository.Querier,
	sessionUID uint64,
	withTrace bool,
) ([]*model.LapRecord, error) {
	traceCol := "null::jsonb"
	if withTrace {
		traceCol = "trace"
	}
	rows, err := conn.Query(ctx, `
	select vehicle_index, lap_number, lap_time_ms, sector1_ms, sector2_ms,
	sector3_ms, valid, completed_at, `+traceCol+`
	from lap where session_uid=$1 order by vehicle_index, lap_number
	`, repository.DBUID(sessionUID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.LapRecord, 0)
	for rows.Next() {
		item := model.LapRecord{SessionUID: sessionUID}
		if err := rows.Scan(&item.VehicleIndex, &item.LapNumber, &item.LapTimeMS,
			&item.Sector1MS, &item.Sector2MS, &item.Sector3MS, &item.Valid,
			&item.CompletedAt, &item.Trace); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// BestLap returns the fastest valid lap of a vehicle in a session.
func BestLap(
	ctx context.Context,
	conn repository.Querier,
	sessionUID uint64,
	vehicleIndex uint8,
) (*model.LapRecord, error) {
	row := conn.QueryRow(ctx, `
	select lap_number, lap_time_ms, sector1_ms, sector2_ms, sector3_ms,
	completed_at
	from lap where session_uid=$1 and vehicle_index=$2 and valid
	order by lap_time_ms asc limit 1
	`, repository.DBUID(sessionUID), vehicleIndex)
	item := model.LapRecord{SessionUID: sessionUID, VehicleIndex: vehicleIndex, Valid: true}
	if err := row.Scan(&item.LapNumber, &item.LapTimeMS, &item.Sector1MS,
		&item.Sector2MS, &item.Sector3MS, &item.CompletedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
