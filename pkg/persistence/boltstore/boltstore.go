// Package boltstore keeps session data in a local bbolt file.
// There is one bucket per event kind, keyed by the natural key.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
)

const (
	BucketSessions       = "sessions"
	BucketLaps           = "laps"
	BucketWeather        = "weather"
	BucketClassification = "classification"
)

var (
	_ persistence.Store  = (*Store)(nil)
	_ persistence.Reader = (*Store)(nil)
)

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{
			BucketSessions, BucketLaps, BucketWeather, BucketClassification,
		} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertSession(_ context.Context, info model.SessionInfo) error {
	return s.put(BucketSessions, info.Key(), info)
}

func (s *Store) LapCompleted(_ context.Context, lap model.LapRecord) error {
	return s.put(BucketLaps, lap.Key(), lap)
}

func (s *Store) WeatherSampled(_ context.Context, w model.WeatherSample) error {
	return s.put(BucketWeather, w.Key(), w)
}

func (s *Store) ClassificationFinal(_ context.Context, c model.Classification) error {
	return s.put(BucketClassification, c.Key(), c)
}

func (s *Store) put(bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

func (s *Store) Sessions() ([]model.SessionInfo, error) {
	return load[model.SessionInfo](s.db, BucketSessions, "")
}

// Laps returns the laps of a session in key order.
func (s *Store) Laps(sessionUID uint64) ([]model.LapRecord, error) {
	return load[model.LapRecord](s.db, BucketLaps, model.SessionKey(sessionUID)+"/")
}

func (s *Store) Weather(sessionUID uint64) ([]model.WeatherSample, error) {
	return load[model.WeatherSample](s.db, BucketWeather, model.SessionKey(sessionUID)+"/")
}

func (s *Store) Classification(sessionUID uint64) ([]model.Classification, error) {
	return load[model.Classification](s.db, BucketClassification,
		model.SessionKey(sessionUID)+"/")
}

// RecentSessions returns up to limit sessions, most recent first.
func (s *Store) RecentSessions(_ context.Context, limit int) ([]model.SessionInfo, error) {
	ret, err := s.Sessions()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(ret, func(a, b model.SessionInfo) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return ret[:min(limit, len(ret))], nil
}

// SessionLaps returns the laps of a session without traces.
func (s *Store) SessionLaps(_ context.Context, sessionUID uint64) ([]model.LapRecord, error) {
	ret, err := s.Laps(sessionUID)
	if err != nil {
		return nil, err
	}
	for i := range ret {
		ret[i].Trace = nil
	}
	return ret, nil
}

func load[T any](db *bbolt.DB, bucket, prefix string) ([]T, error) {
	ret := make([]T, 0)
	err := db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			ret = append(ret, item)
		}
		return nil
	})
	return ret, err
}
