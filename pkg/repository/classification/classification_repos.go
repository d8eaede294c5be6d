//nolint:whitespace // can't make both editor and linter happy
package classification

import (
	"context"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository"
)

// Upsert stores the result of one vehicle and replaces its stints.
// Callers should run it inside a transaction.
func Upsert(ctx context.Context, conn repository.Querier, c *model.Classification) error {
	uid := repository.DBUID(c.SessionUID)
	if _, err := conn.Exec(ctx, `
	insert into classification (
		session_uid, vehicle_index, driver_name, team_id, position, num_laps,
		grid_position, points, num_pit_stops, result_status, best_lap_time_ms,
		total_race_time, penalties_time, num_penalties
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	on conflict (session_uid, vehicle_index) do update set
		driver_name=excluded.driver_name,
		team_id=excluded.team_id,
		position=excluded.position,
		num_laps=excluded.num_laps,
		grid_position=excluded.grid_position,
		points=excluded.points,
		num_pit_stops=excluded.num_pit_stops,
		result_status=excluded.result_status,
		best_lap_time_ms=excluded.best_lap_time_ms,
		total_race_time=excluded.total_race_time,
		penalties_time=excluded.penalties_time,
		num_penalties=excluded.num_penalties
	`,
		uid, c.VehicleIndex, c.DriverName, c.TeamID, c.Position, c.NumLaps,
		c.GridPosition, c.Points, c.NumPitStops, c.ResultStatus, c.BestLapTimeMS,
		c.TotalRaceTime, c.PenaltiesTime, c.NumPenalties,
	); err != nil {
		return err
	}
	if _, err := conn.Exec(ctx,
		"delete from classification_stint where session_uid=$1 and vehicle_index=$2",
		uid, c.VehicleIndex); err != nil {
		return err
	}
	for _, s := range c.Stints {
		if _, err := conn.Exec(ctx, `
		insert into classification_stint (
			session_uid, vehicle_index, stint_index, actual_compound,
			visual_compound, end_lap
		) values ($1,$2,$3,$4,$5,$6)
		`,
			uid, c.VehicleIndex, s.StintIndex, s.ActualCompound,
			s.VisualCompound, s.EndLap); err != nil {
			return err
		}
	}
	return nil
}

// LoadBySession returns the classification ordered by position.
func LoadBySession(ctx context.Context, conn repository.Querier, sessionUID uint64) (
	[]*model.Classification, error,
) {
	uid := repository.DBUID(sessionUID)
	rows, err := conn.Query(ctx, `
	select vehicle_index, driver_name, team_id, position, num_laps, grid_position,
	points, num_pit_stops, result_status, best_lap_time_ms, total_race_time,
	penalties_time, num_penalties
	from classification where session_uid=$1 order by position asc
	`, uid)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Classification, 0)
	byVehicle := map[uint8]*model.Classification{}
	for rows.Next() {
		item := model.Classification{SessionUID: sessionUID, Stints: []model.Stint{}}
		if err := rows.Scan(&item.VehicleIndex, &item.DriverName, &item.TeamID,
			&item.Position, &item.NumLaps, &item.GridPosition, &item.Points,
			&item.NumPitStops, &item.ResultStatus, &item.BestLapTimeMS,
			&item.TotalRaceTime, &item.PenaltiesTime, &item.NumPenalties); err != nil {
			rows.Close()
			return nil, err
		}
		ret = append(ret, &item)
		byVehicle[item.VehicleIndex] = &item
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stints, err := conn.Query(ctx, `
	select vehicle_index, stint_index, actual_compound, visual_compound, end_lap
	from classification_stint where session_uid=$1
	order by vehicle_index, stint_index
	`, uid)
	if err != nil {
		return nil, err
	}
	defer stints.Close()
	for stints.Next() {
		var vehicle uint8
		var s model.Stint
		if err := stints.Scan(&vehicle, &s.StintIndex, &s.ActualCompound,
			&s.VisualCompound, &s.EndLap); err != nil {
			return nil, err
		}
		if c, ok := byVehicle[vehicle]; ok {
			c.Stints = append(c.Stints, s)
		}
	}
	return ret, stints.Err()
}
