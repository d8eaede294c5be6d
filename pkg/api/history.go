package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils/cache"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils/cache/loadercache"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 100
	historyExpiration   = 2 * time.Second
)

var errInvalidParam = errors.New("invalid parameter")

type history struct {
	sessions cache.Cache[int, []model.SessionInfo]
	laps     cache.Cache[uint64, []model.LapRecord]
}

// WithHistory enables the session endpoints backed by r.
// Results are cached for a short time.
func WithHistory(r persistence.Reader) Option {
	return func(s *Server) {
		s.history = &history{
			sessions: loadercache.New(
				loadercache.WithExpiration[int, []model.SessionInfo](historyExpiration),
				loadercache.WithLoader[int, []model.SessionInfo](r.RecentSessions),
			),
			laps: loadercache.New(
				loadercache.WithExpiration[uint64, []model.LapRecord](historyExpiration),
				loadercache.WithLoader[uint64, []model.LapRecord](r.SessionLaps),
			),
		}
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, errInvalidParam.Error()+": limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxSessionLimit)
	}
	ret, err := s.history.sessions.Get(r.Context(), limit)
	s.writeHistory(w, ret, err)
}

// handleLaps expects the session uid in the hex form used for keys.
func (s *Server) handleLaps(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseUint(r.PathValue("uid"), 16, 64)
	if err != nil {
		http.Error(w, errInvalidParam.Error()+": uid", http.StatusBadRequest)
		return
	}
	ret, err := s.history.laps.Get(r.Context(), uid)
	s.writeHistory(w, ret, err)
}

func (s *Server) writeHistory(w http.ResponseWriter, v any, err error) {
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.l.Warn("history lookup failed", log.ErrorField(err))
		}
		http.Error(w, http.StatusText(http.StatusServiceUnavailable),
			http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, v)
}
