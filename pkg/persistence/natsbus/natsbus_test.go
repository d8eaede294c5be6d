package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
)

type published struct {
	subject string
	data    []byte
}

type fakeJS struct {
	mu   sync.Mutex
	msgs []published
	kv   map[string][]byte
	puts int
	err  error
}

//nolint:lll // test fake
func (f *fakeJS) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return &jetstream.PubAck{}, nil
}

func (f *fakeJS) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.kv[key] = value
	return uint64(f.puts), nil
}

func (f *fakeJS) snapshot() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.kv[SnapshotKey]), f.puts
}

func newTestBus() (*Bus, *fakeJS) {
	f := &fakeJS{kv: map[string][]byte{}}
	b := newBus()
	b.pub = f
	b.kv = f
	return b, f
}

func TestSubjects(t *testing.T) {
	b, f := newTestBus()
	ctx := context.Background()
	require.NoError(t, b.UpsertSession(ctx, model.SessionInfo{SessionUID: 0xabc}))
	require.NoError(t, b.LapCompleted(ctx, model.LapRecord{SessionUID: 0xabc, LapNumber: 2}))
	require.NoError(t, b.WeatherSampled(ctx, model.WeatherSample{SessionUID: 0xabc}))
	require.NoError(t, b.ClassificationFinal(ctx, model.Classification{SessionUID: 0xabc}))

	subjects := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		subjects = append(subjects, m.subject)
	}
	assert.Equal(t, []string{
		"fts.session.0000000000000abc",
		"fts.lap.0000000000000abc",
		"fts.weather.0000000000000abc",
		"fts.classification.0000000000000abc",
	}, subjects)

	var lap model.LapRecord
	require.NoError(t, json.Unmarshal(f.msgs[1].data, &lap))
	assert.Equal(t, uint8(2), lap.LapNumber)
}

func TestMsgIDIsDeterministic(t *testing.T) {
	a := MsgID("lap", "0000000000000001/0/1")
	assert.Equal(t, a, MsgID("lap", "0000000000000001/0/1"))
	assert.NotEqual(t, a, MsgID("lap", "0000000000000001/0/2"))
	assert.NotEqual(t, a, MsgID("weather", "0000000000000001/0/1"))
	assert.Len(t, a, 36)
}

func TestPublishError(t *testing.T) {
	b, f := newTestBus()
	f.err = errors.New("no responders")
	assert.ErrorIs(t,
		b.LapCompleted(context.Background(), model.LapRecord{}), f.err)
}

func TestSnapshotThrottle(t *testing.T) {
	b, f := newTestBus()
	now := time.Unix(100, 0)
	b.now = func() time.Time { return now }
	ctx := context.Background()
	snap := &livestate.Snapshot{Dropped: 3}

	ok, err := b.PutSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(500 * time.Millisecond)
	ok, err = b.PutSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(500 * time.Millisecond)
	ok, err = b.PutSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.puts)
	assert.Contains(t, string(f.kv[SnapshotKey]), `"dropped":3`)
}

func TestMirrorSnapshots(t *testing.T) {
	b, f := newTestBus()
	b.kvInterval = 0
	ch := make(chan *livestate.Snapshot, 2)
	ch <- &livestate.Snapshot{}
	ch <- &livestate.Snapshot{}
	close(ch)
	require.NoError(t, b.MirrorSnapshots(context.Background(), ch))
	assert.Equal(t, 2, f.puts)
}

func TestMirrorWritesLatestOnClose(t *testing.T) {
	b, f := newTestBus()
	now := time.Unix(100, 0)
	b.now = func() time.Time { return now }
	ch := make(chan *livestate.Snapshot, 3)
	ch <- &livestate.Snapshot{Dropped: 1}
	ch <- &livestate.Snapshot{Dropped: 2}
	ch <- &livestate.Snapshot{Dropped: 3}
	close(ch)
	require.NoError(t, b.MirrorSnapshots(context.Background(), ch))

	data, puts := f.snapshot()
	assert.Equal(t, 2, puts)
	assert.Contains(t, data, `"dropped":3`)
}

func TestMirrorWritesLatestOnCancel(t *testing.T) {
	b, f := newTestBus()
	now := time.Unix(100, 0)
	b.now = func() time.Time { return now }
	ch := make(chan *livestate.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- b.MirrorSnapshots(ctx, ch) }()

	ch <- &livestate.Snapshot{Dropped: 1}
	ch <- &livestate.Snapshot{Dropped: 2}
	cancel()
	require.NoError(t, <-done)

	data, puts := f.snapshot()
	assert.Equal(t, 2, puts)
	assert.Contains(t, data, `"dropped":2`)
}

func TestMirrorWritesPendingAfterInterval(t *testing.T) {
	b, f := newTestBus()
	b.kvInterval = 50 * time.Millisecond
	ch := make(chan *livestate.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.MirrorSnapshots(ctx, ch) }()

	ch <- &livestate.Snapshot{Dropped: 1}
	ch <- &livestate.Snapshot{Dropped: 2}

	assert.Eventually(t, func() bool {
		data, puts := f.snapshot()
		return puts == 2 && strings.Contains(data, `"dropped":2`)
	}, time.Second, 10*time.Millisecond)
}
