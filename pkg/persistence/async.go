package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
)

const (
	DefaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

type job struct {
	kind string
	key  string
	link trace.Link
	fn   func(ctx context.Context) error
}

// Async is a Gateway that hands events to a Store on a worker goroutine.
// When the queue is full new events are dropped and counted.
type Async struct {
	store        Store
	queue        chan job
	queueSize    int
	writeTimeout time.Duration
	log          *log.Logger
	tracer       trace.Tracer
	mu           sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	written      atomic.Int64
	failed       atomic.Int64
	dropped      atomic.Int64
}

type AsyncOption func(*Async)

func WithQueueSize(size int) AsyncOption {
	return func(a *Async) {
		a.queueSize = size
	}
}

func WithWriteTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		a.writeTimeout = d
	}
}

func WithLogger(l *log.Logger) AsyncOption {
	return func(a *Async) {
		a.log = l
	}
}

func WithTracer(tracer trace.Tracer) AsyncOption {
	return func(a *Async) {
		a.tracer = tracer
	}
}

func NewAsync(store Store, opts ...AsyncOption) *Async {
	a := &Async{
		store:        store,
		queueSize:    DefaultQueueSize,
		writeTimeout: defaultWriteTimeout,
		log:          log.Default().Named("persistence"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer("fts")
	}
	a.queue = make(chan job, a.queueSize)
	a.setupMetrics()
	a.wg.Add(1)
	go a.work()
	return a
}

type AsyncStats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

func (a *Async) Stats() AsyncStats {
	return AsyncStats{
		Written: a.written.Load(),
		Failed:  a.failed.Load(),
		Dropped: a.dropped.Load(),
	}
}

func (a *Async) UpsertSession(ctx context.Context, s model.SessionInfo) {
	a.submit(ctx, job{kind: "session", key: s.Key(), fn: func(ctx context.Context) error {
		return a.store.UpsertSession(ctx, s)
	}})
}

func (a *Async) LapCompleted(ctx context.Context, l model.LapRecord) {
	a.submit(ctx, job{kind: "lap", key: l.Key(), fn: func(ctx context.Context) error {
		return a.store.LapCompleted(ctx, l)
	}})
}

func (a *Async) WeatherSampled(ctx context.Context, w model.WeatherSample) {
	a.submit(ctx, job{kind: "weather", key: w.Key(), fn: func(ctx context.Context) error {
		return a.store.WeatherSampled(ctx, w)
	}})
}

func (a *Async) ClassificationFinal(ctx context.Context, c model.Classification) {
	a.submit(ctx, job{kind: "classification", key: c.Key(), fn: func(ctx context.Context) error {
		return a.store.ClassificationFinal(ctx, c)
	}})
}

// Close stops accepting events and waits until the queue is drained
// or ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.log.Info("persistence queue drained",
			log.Int64("written", a.written.Load()),
			log.Int64("failed", a.failed.Load()),
			log.Int64("dropped", a.dropped.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) submit(ctx context.Context, j job) {
	j.link = trace.LinkFromContext(ctx)
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}
	select {
	case a.queue <- j:
	default:
		a.dropped.Add(1)
		a.log.Warn("persistence queue full, dropping event",
			log.String("kind", j.kind), log.String("key", j.key))
	}
}

func (a *Async) work() {
	defer a.wg.Done()
	for j := range a.queue {
		a.process(j)
	}
}

func (a *Async) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
	defer cancel()
	ctx, span := a.tracer.Start(ctx, "persist."+j.kind,
		trace.WithLinks(j.link),
		trace.WithAttributes(
			attribute.String("kind", j.kind),
			attribute.String("key", j.key)))
	defer span.End()

	if err := j.fn(ctx); err != nil {
		a.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.log.Error("could not persist event",
			log.String("kind", j.kind),
			log.String("key", j.key),
			log.ErrorField(err))
		return
	}
	a.written.Add(1)
	a.log.Debug("persisted event",
		log.String("kind", j.kind), log.String("key", j.key))
}

func (a *Async) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("fts.persistence")
	for _, d := range []struct {
		name  string
		desc  string
		value func() int64
	}{
		{"fts.persistence.written", "Number of persisted events", a.written.Load},
		{"fts.persistence.failed", "Number of failed writes", a.failed.Load},
		{"fts.persistence.dropped", "Number of dropped events", a.dropped.Load},
		{
			"fts.persistence.queued", "Number of queued events",
			func() int64 { return int64(len(a.queue)) },
		},
	} {
		value := d.value
		if _, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(
				func(_ context.Context, o metric.Int64Observer) error {
					o.Observe(value())
					return nil
				})); err != nil {
			a.log.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
		}
	}
}
