// Package persistence defines the outbound write contract of the live state
// aggregator and the asynchronous writer that feeds the store backends.
//
// All events are idempotent by their natural key:
//   - session: session uid
//   - lap: session uid, vehicle index, lap number
//   - weather: session uid, capture time
//   - classification: session uid, vehicle index
package persistence

import (
	"context"
	"errors"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
)

// Gateway receives events from the aggregator.
// Implementations must not block the caller.
type Gateway interface {
	UpsertSession(ctx context.Context, s model.SessionInfo)
	LapCompleted(ctx context.Context, l model.LapRecord)
	WeatherSampled(ctx context.Context, w model.WeatherSample)
	ClassificationFinal(ctx context.Context, c model.Classification)
}

// Store is implemented by the storage backends.
type Store interface {
	UpsertSession(ctx context.Context, s model.SessionInfo) error
	LapCompleted(ctx context.Context, l model.LapRecord) error
	WeatherSampled(ctx context.Context, w model.WeatherSample) error
	ClassificationFinal(ctx context.Context, c model.Classification) error
}

// Reader is the read side of the stores that keep history.
type Reader interface {
	RecentSessions(ctx context.Context, limit int) ([]model.SessionInfo, error)
	SessionLaps(ctx context.Context, sessionUID uint64) ([]model.LapRecord, error)
}

// Nop is a Store that accepts everything and keeps nothing.
type Nop struct{}

// Discard is a Gateway that drops every event.
type Discard struct{}

var (
	_ Gateway = Discard{}
	_ Gateway = (*Async)(nil)
	_ Store   = Nop{}
	_ Store   = Multi(nil)
)

func (Discard) UpsertSession(context.Context, model.SessionInfo) {}
func (Discard) LapCompleted(context.Context, model.LapRecord) {}
func (Discard) WeatherSampled(context.Context, model.WeatherSample) {}
func (Discard) ClassificationFinal(context.Context, model.Classification) {}

func (Nop) UpsertSession(context.Context, model.SessionInfo) error { return nil }
func (Nop) LapCompleted(context.Context, model.LapRecord) error { return nil }
func (Nop) WeatherSampled(context.Context, model.WeatherSample) error { return nil }
func (Nop) ClassificationFinal(context.Context, model.Classification) error { return nil }

// Multi writes to every store, even if some fail.
type Multi []Store

func (m Multi) each(fn func(s Store) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) UpsertSession(ctx context.Context, s model.SessionInfo) error {
	return m.each(func(st Store) error { return st.UpsertSession(ctx, s) })
}

func (m Multi) LapCompleted(ctx context.Context, l model.LapRecord) error {
	return m.each(func(st Store) error { return st.LapCompleted(ctx, l) })
}

func (m Multi) WeatherSampled(ctx context.Context, w model.WeatherSample) error {
	return m.each(func(st Store) error { return st.WeatherSampled(ctx, w) })
}

//nolint:whitespace // can't make both editor and linter happy
func (m Multi) ClassificationFinal(
	ctx context.Context,
	c model.Classification,
) error {
	return m.each(func(st Store) error { return st.ClassificationFinal(ctx, c) })
}
