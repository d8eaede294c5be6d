package basedata

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	sessionrepos "github.com/mpapenbr/f1telemetry-service-go/pkg/repository/session"
)

// SampleSessionUID has the high bit set to cover the bigint mapping.
const SampleSessionUID uint64 = 0x8000_0000_dead_beef

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

func SampleSession() *model.SessionInfo {
	return &model.SessionInfo{
		SessionUID:      SampleSessionUID,
		SessionType:     10,
		TrackID:         7,
		TrackLength:     5891,
		TotalLaps:       5,
		SessionDuration: 3600,
		PlayerCarIndex:  3,
		CreatedAt:       TestTime(),
	}
}

func SampleLap(vehicle, lap uint8) *model.LapRecord {
	return &model.LapRecord{
		SessionUID:   SampleSessionUID,
		VehicleIndex: vehicle,
		LapNumber:    lap,
		LapTimeMS:    90000 + uint32(lap),
		Sector1MS:    30000,
		Sector2MS:    30000,
		Sector3MS:    30000 + uint32(lap),
		Valid:        true,
		CompletedAt:  TestTime().Add(time.Duration(lap) * 90 * time.Second),
	}
}

func SampleWeather(offset time.Duration) *model.WeatherSample {
	return &model.WeatherSample{
		SessionUID:  SampleSessionUID,
		CapturedAt:  TestTime().Add(offset),
		SessionTime: float32(offset.Seconds()),
		TimeLeft:    3600,
		Weather:     1,
		TrackTemp:   32,
		AirTemp:     24,
		Forecast: []model.Forecast{
			{TimeOffsetMinutes: 5, Weather: 2, TrackTemp: 31, AirTemp: 23},
		},
	}
}

func SampleClassification(vehicle, position uint8) *model.Classification {
	return &model.Classification{
		SessionUID:    SampleSessionUID,
		VehicleIndex:  vehicle,
		DriverName:    "Driver",
		Position:      position,
		NumLaps:       5,
		GridPosition:  position,
		ResultStatus:  3,
		BestLapTimeMS: 89000,
		TotalRaceTime: 452.5,
		Stints: []model.Stint{
			{StintIndex: 0, ActualCompound: 16, VisualCompound: 16, EndLap: 3},
			{StintIndex: 1, ActualCompound: 17, VisualCompound: 17, EndLap: 255},
		},
	}
}

// CreateBaseData stores the sample session.
func CreateBaseData(pool *pgxpool.Pool) *model.SessionInfo {
	s := SampleSession()
	if err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		return sessionrepos.Upsert(context.Background(), tx, s)
	}); err != nil {
		log.Fatalf("CreateBaseData: %v\n", err)
	}
	return s
}
