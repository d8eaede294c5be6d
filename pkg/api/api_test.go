package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/receiver"
)

type staticSnapshot struct {
	s *livestate.Snapshot
}

func (s staticSnapshot) Snapshot() *livestate.Snapshot { return s.s }

type staticFeed struct{}

func (staticFeed) Stats() receiver.Stats { return receiver.Stats{Received: 10, Decoded: 8} }
func (staticFeed) Connected() bool       { return true }

func testServer() *Server {
	snap := &livestate.Snapshot{
		Session: livestate.SessionView{SessionUID: 42},
		Packets: map[string]uint64{"Motion": 3},
		Dropped: 1,
	}
	return New(":0", staticSnapshot{snap},
		WithFeedStatus(staticFeed{}),
		WithPersistenceStats(func() persistence.AsyncStats {
			return persistence.AsyncStats{Written: 5}
		}))
}

func TestSnapshotEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	session, ok := got["session"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 42, session["sessionUid"], 0)
}

func TestStatusEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Connected)
	assert.Equal(t, receiver.Stats{Received: 10, Decoded: 8}, got.Receiver)
	require.NotNil(t, got.Persistence)
	assert.Equal(t, int64(5), got.Persistence.Written)
	assert.Equal(t, uint64(3), got.Packets["Motion"])
	assert.Equal(t, uint64(1), got.Dropped)
}

func TestMethodAndCORS(t *testing.T) {
	h := testServer().Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := testServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
