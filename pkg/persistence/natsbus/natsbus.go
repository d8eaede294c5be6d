// Package natsbus publishes session data to NATS JetStream and mirrors
// the live snapshot into a key value bucket.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
)

const (
	DefaultStream     = "FTS"
	DefaultBucket     = "fts-live"
	DefaultKVInterval = time.Second
	SnapshotKey       = "snapshot"
	flushTimeout      = 5 * time.Second
	subjectPrefix     = "fts"
)

var _ persistence.Store = (*Bus)(nil)

type (
	publisher interface {
		//nolint:lll // interface
		Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
	}
	kvPutter interface {
		Put(ctx context.Context, key string, value []byte) (uint64, error)
	}
	Bus struct {
		stream     string
		bucket     string
		kvInterval time.Duration
		l          *log.Logger
		now        func() time.Time

		pub    publisher
		kv     kvPutter
		mu     sync.Mutex
		lastKV time.Time
	}
	Option func(*Bus)
)

func WithStream(name string) Option {
	return func(b *Bus) {
		b.stream = name
	}
}

func WithBucket(name string) Option {
	return func(b *Bus) {
		b.bucket = name
	}
}

// WithKVInterval sets the minimum time between two snapshot updates.
func WithKVInterval(d time.Duration) Option {
	return func(b *Bus) {
		b.kvInterval = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *Bus) {
		b.l = l
	}
}

// New creates the stream and the key value bucket if needed.
func New(ctx context.Context, conn *nats.Conn, opts ...Option) (*Bus, error) {
	b := newBus(opts...)
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, err
	}
	if _, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       b.stream,
		Subjects:   []string{subjectPrefix + ".>"},
		Duplicates: 10 * time.Minute,
		MaxAge:     7 * 24 * time.Hour,
	}); err != nil {
		return nil, fmt.Errorf("stream %s: %w", b.stream, err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: b.bucket,
		TTL:    time.Hour * 24,
	})
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", b.bucket, err)
	}
	b.pub = js
	b.kv = kv
	return b, nil
}

func newBus(opts ...Option) *Bus {
	b := &Bus{
		stream:     DefaultStream,
		bucket:     DefaultBucket,
		kvInterval: DefaultKVInterval,
		l:          log.Default().Named("nats"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subject returns the subject events of kind are published on.
func Subject(kind string, sessionUID uint64) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, kind, model.SessionKey(sessionUID))
}

// MsgID derives the deduplication id from the natural key of an event.
func MsgID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("fts:"+kind+":"+key)).String()
}

func (b *Bus) UpsertSession(ctx context.Context, s model.SessionInfo) error {
	return b.publish(ctx, "session", s.SessionUID, s.Key(), s)
}

func (b *Bus) LapCompleted(ctx context.Context, l model.LapRecord) error {
	return b.publish(ctx, "lap", l.SessionUID, l.Key(), l)
}

func (b *Bus) WeatherSampled(ctx context.Context, w model.WeatherSample) error {
	return b.publish(ctx, "weather", w.SessionUID, w.Key(), w)
}

func (b *Bus) ClassificationFinal(ctx context.Context, c model.Classification) error {
	return b.publish(ctx, "classification", c.SessionUID, c.Key(), c)
}

//nolint:whitespace // can't make both editor and linter happy
func (b *Bus) publish(
	ctx context.Context,
	kind string,
	sessionUID uint64,
	key string,
	payload any,
) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	// session upserts carry changing content under the same key
	msgID := MsgID(kind, key)
	if kind == "session" {
		msgID = MsgID(kind, key+"/"+string(data))
	}
	_, err = b.pub.Publish(ctx, Subject(kind, sessionUID), data, jetstream.WithMsgID(msgID))
	return err
}

// PutSnapshot stores s in the bucket unless the last update is more recent
// than the configured interval. Returns true if the snapshot was written.
func (b *Bus) PutSnapshot(ctx context.Context, s *livestate.Snapshot) (bool, error) {
	b.mu.Lock()
	now := b.now()
	if !b.lastKV.IsZero() && now.Sub(b.lastKV) < b.kvInterval {
		b.mu.Unlock()
		return false, nil
	}
	b.lastKV = now
	b.mu.Unlock()

	if err := b.putSnapshot(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bus) putSnapshot(ctx context.Context, s *livestate.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = b.kv.Put(ctx, SnapshotKey, data)
	return err
}

// flushSnapshot writes s regardless of the interval.
func (b *Bus) flushSnapshot(ctx context.Context, s *livestate.Snapshot) error {
	b.mu.Lock()
	b.lastKV = b.now()
	b.mu.Unlock()
	return b.putSnapshot(ctx, s)
}

// untilNextPut returns the time left until PutSnapshot accepts a snapshot.
func (b *Bus) untilNextPut() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return max(0, b.kvInterval-b.now().Sub(b.lastKV))
}

// MirrorSnapshots writes snapshots from changes until the channel is
// closed or ctx is done. A snapshot held back by the interval is written
// once the interval expires unless a newer one replaces it. The latest
// pending snapshot is also written on return.
//
//nolint:whitespace,cyclop // can't make both editor and linter happy
func (b *Bus) MirrorSnapshots(
	ctx context.Context,
	changes <-chan *livestate.Snapshot,
) error {
	var pending *livestate.Snapshot
	timer := time.NewTimer(b.kvInterval)
	timer.Stop()
	defer timer.Stop()

	flush := func(ctx context.Context) {
		if pending == nil {
			return
		}
		if err := b.flushSnapshot(ctx, pending); err != nil {
			b.l.Warn("snapshot put failed", log.ErrorField(err))
		}
		pending = nil
	}
	final := func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		flush(fctx)
	}

	for {
		select {
		case <-ctx.Done():
			final()
			return nil
		case <-timer.C:
			flush(ctx)
		case s, ok := <-changes:
			if !ok {
				final()
				return nil
			}
			written, err := b.PutSnapshot(ctx, s)
			switch {
			case err != nil:
				b.l.Warn("snapshot put failed", log.ErrorField(err))
			case written:
				pending = nil
				timer.Stop()
			default:
				if pending == nil {
					timer.Reset(b.untilNextPut())
				}
				pending = s
			}
		}
	}
}
