package weather

import (
	"context"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/repository"
)

// Create stores a weather sample. Storing the same sample twice is a no-op.
func Create(ctx context.Context, conn repository.Querier, w *model.WeatherSample) error {
	var forecast any
	if len(w.Forecast) > 0 {
		forecast = w.Forecast
	}
	_, err := conn.Exec(ctx, `
	insert into weather (
		session_uid, captured_at, session_time, time_left, weather,
		track_temp, air_temp, safety_car_status, forecast
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	on conflict (session_uid, captured_at) do nothing
	`,
		repository.DBUID(w.SessionUID), w.CapturedAt, w.SessionTime, w.TimeLeft,
		w.Weather, w.TrackTemp, w.AirTemp, w.SafetyCarStatus, forecast,
	)
	return err
}

//nolint:whitespace // can't make both editor and linter happy
func LoadBySession(ctx context.Context, conn repository.Querier, sessionUID uint64) (
	[]*model.WeatherSample, error,
) {
	rows, err := conn.Query(ctx, `
	select captured_at, session_time, time_left, weather, track_temp, air_temp,
	safety_car_status, forecast
	from weather where session_uid=$1 order by captured_at asc
	`, repository.DBUID(sessionUID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.WeatherSample, 0)
	for rows.Next() {
		item := model.WeatherSample{SessionUID: sessionUID}
		if err := rows.Scan(&item.CapturedAt, &item.SessionTime, &item.TimeLeft,
			&item.Weather, &item.TrackTemp, &item.AirTemp, &item.SafetyCarStatus,
			&item.Forecast); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}
