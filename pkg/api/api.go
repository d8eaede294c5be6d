// Package api serves the live state as JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/receiver"
	"github.com/mpapenbr/f1telemetry-service-go/version"
)

type (
	SnapshotSource interface {
		Snapshot() *livestate.Snapshot
	}
	FeedStatus interface {
		Stats() receiver.Stats
		Connected() bool
	}
	Status struct {
		Version     string                  `json:"version"`
		Connected   bool                    `json:"connected"`
		Receiver    receiver.Stats          `json:"receiver"`
		Persistence *persistence.AsyncStats `json:"persistence,omitempty"`
		Packets     map[string]uint64       `json:"packets"`
		Dropped     uint64                  `json:"dropped"`
		LastUpdate  time.Time               `json:"lastUpdate"`
	}
	Server struct {
		addr        string
		snapshots   SnapshotSource
		feed        FeedStatus
		persistence func() persistence.AsyncStats
		history     *history
		l           *log.Logger
		srv         *http.Server
	}
	Option func(*Server)
)

func WithFeedStatus(f FeedStatus) Option {
	return func(s *Server) {
		s.feed = f
	}
}

func WithPersistenceStats(f func() persistence.AsyncStats) Option {
	return func(s *Server) {
		s.persistence = f
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func New(addr string, snapshots SnapshotSource, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		snapshots: snapshots,
		l:         log.Default().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           s.Handler(),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	if s.history != nil {
		mux.HandleFunc("GET /api/v1/sessions", s.handleSessions)
		mux.HandleFunc("GET /api/v1/sessions/{uid}/laps", s.handleLaps)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // by design
		w.Write([]byte("ok"))
	})
	return h2c.NewHandler(newCORS().Handler(mux), &http2.Server{})
}

// Serve blocks until ctx is done or the server fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.l.Info("serving status api", log.String("addr", ln.Addr().String()))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.l.Warn("shutdown", log.ErrorField(err))
		}
	}()
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.snapshots.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshots.Snapshot()
	st := Status{
		Version:    version.Version,
		Connected:  snap.Connected,
		Packets:    snap.Packets,
		Dropped:    snap.Dropped,
		LastUpdate: snap.LastUpdate,
	}
	if s.feed != nil {
		st.Connected = s.feed.Connected()
		st.Receiver = s.feed.Stats()
	}
	if s.persistence != nil {
		ps := s.persistence()
		st.Persistence = &ps
	}
	s.writeJSON(w, st)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.Warn("could not write response", log.ErrorField(err))
	}
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Accept", "Accept-Encoding", "Content-Encoding"},
	})
}
