// Package receiver reads telemetry datagrams from a UDP socket and hands
// the decoded packets to a consumer in arrival order.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
)

const (
	DefaultAddr             = ":20777"
	DefaultLivenessWindow   = 3 * time.Second
	DefaultLivenessInterval = 2 * time.Second
	DefaultReadBuffer       = 2048
)

// Recorder receives every datagram before it is decoded.
type Recorder interface {
	Write(ts time.Time, datagram []byte) error
}

type Stats struct {
	Received  int64 `json:"received"`
	Decoded   int64 `json:"decoded"`
	Malformed int64 `json:"malformed"`
	Short     int64 `json:"short"`
	Ignored   int64 `json:"ignored"`
}

type Receiver struct {
	addr             string
	decoder          *packet.Decoder
	handler          func(packet.Packet)
	onLiveness       func(connected bool)
	log              *log.Logger
	livenessWindow   time.Duration
	livenessInterval time.Duration
	readBuffer       int
	recorder         Recorder
	now              func() time.Time

	conn        *net.UDPConn
	received    atomic.Int64
	decoded     atomic.Int64
	malformed   atomic.Int64
	short       atomic.Int64
	ignored     atomic.Int64
	lastDecoded atomic.Int64
	connected   atomic.Bool
	stopOnce    sync.Once
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

type Option func(*Receiver)

func WithAddr(addr string) Option {
	return func(r *Receiver) {
		r.addr = addr
	}
}

func WithDecoder(d *packet.Decoder) Option {
	return func(r *Receiver) {
		r.decoder = d
	}
}

// WithHandler sets the consumer. It is called on the read goroutine.
func WithHandler(h func(packet.Packet)) Option {
	return func(r *Receiver) {
		r.handler = h
	}
}

// WithOutput sends decoded packets to ch. A full channel blocks the reader.
func WithOutput(ch chan<- packet.Packet) Option {
	return func(r *Receiver) {
		r.handler = func(p packet.Packet) {
			select {
			case ch <- p:
			case <-r.stopCh:
			}
		}
	}
}

// WithLivenessHandler is called whenever the liveness state changes.
func WithLivenessHandler(h func(connected bool)) Option {
	return func(r *Receiver) {
		r.onLiveness = h
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Receiver) {
		r.log = l
	}
}

func WithLivenessWindow(d time.Duration) Option {
	return func(r *Receiver) {
		r.livenessWindow = d
	}
}

func WithLivenessInterval(d time.Duration) Option {
	return func(r *Receiver) {
		r.livenessInterval = d
	}
}

func WithReadBuffer(size int) Option {
	return func(r *Receiver) {
		r.readBuffer = size
	}
}

func WithRecorder(rec Recorder) Option {
	return func(r *Receiver) {
		r.recorder = rec
	}
}

func New(opts ...Option) *Receiver {
	r := &Receiver{
		addr:             DefaultAddr,
		decoder:          packet.NewDecoder(),
		handler:          func(packet.Packet) {},
		onLiveness:       func(bool) {},
		log:              log.Default().Named("receiver"),
		livenessWindow:   DefaultLivenessWindow,
		livenessInterval: DefaultLivenessInterval,
		readBuffer:       DefaultReadBuffer,
		now:              time.Now,
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start binds the socket and starts the receive loop.
// The receiver stops when ctx is done or Stop is called.
func (r *Receiver) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", r.addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", r.addr, err)
	}
	r.conn, err = net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", r.addr, err)
	}
	r.log.Info("listening for telemetry",
		log.String("addr", r.conn.LocalAddr().String()),
		log.Stringer("carStatusLayout", r.decoder.CarStatusLayout()))
	r.setupMetrics()

	r.wg.Add(2)
	go r.readLoop()
	go r.livenessLoop()
	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.stopCh:
		}
	}()
	return nil
}

// Addr returns the bound address or nil before Start.
func (r *Receiver) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Stop closes the socket and waits for the loops to end.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.conn != nil {
			if err := r.conn.Close(); err != nil {
				r.log.Warn("closing socket", log.ErrorField(err))
			}
		}
		r.wg.Wait()
		r.log.Info("receiver stopped", log.Any("stats", r.Stats()))
	})
}

func (r *Receiver) Connected() bool {
	return r.connected.Load()
}

func (r *Receiver) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Decoded:   r.decoded.Load(),
		Malformed: r.malformed.Load(),
		Short:     r.short.Load(),
		Ignored:   r.ignored.Load(),
	}
}

func (r *Receiver) readLoop() {
	defer r.wg.Done()
	buf := make([]byte, r.readBuffer)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.Warn("could not read datagram", log.ErrorField(err))
			continue
		}
		r.handle(buf[:n])
	}
}

func (r *Receiver) handle(b []byte) {
	r.received.Add(1)
	now := r.now()
	if r.recorder != nil {
		if err := r.recorder.Write(now, b); err != nil {
			r.log.Warn("could not record datagram", log.ErrorField(err))
		}
	}
	p, err := r.decoder.Decode(b)
	if err != nil {
		r.countFailure(err, len(b))
		return
	}
	r.decoded.Add(1)
	r.lastDecoded.Store(now.UnixNano())
	r.handler(p)
}

func (r *Receiver) countFailure(err error, size int) {
	switch {
	case errors.Is(err, packet.ErrIgnored):
		r.ignored.Add(1)
		return
	case errors.Is(err, packet.ErrShortPacket):
		r.short.Add(1)
	default:
		r.malformed.Add(1)
	}
	r.log.Debug("dropping datagram", log.Int("size", size), log.ErrorField(err))
}

func (r *Receiver) livenessLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.livenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.checkLiveness()
		}
	}
}

func (r *Receiver) checkLiveness() {
	last := r.lastDecoded.Load()
	alive := last != 0 && r.now().Sub(time.Unix(0, last)) < r.livenessWindow
	if r.connected.Swap(alive) == alive {
		return
	}
	if alive {
		r.log.Info("telemetry feed connected")
	} else {
		r.log.Warn("telemetry feed lost",
			log.String("hint", fmt.Sprintf("check the game sends UDP to %s", r.addr)))
	}
	r.onLiveness(alive)
}

func (r *Receiver) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("fts.receiver")
	for _, d := range []struct {
		name  string
		desc  string
		value func() int64
	}{
		{"fts.receiver.received", "Number of received datagrams", r.received.Load},
		{"fts.receiver.decoded", "Number of decoded packets", r.decoded.Load},
		{"fts.receiver.malformed", "Number of datagrams with invalid header", r.malformed.Load},
		{"fts.receiver.short", "Number of truncated packets", r.short.Load},
		{"fts.receiver.ignored", "Number of packets of unhandled types", r.ignored.Load},
	} {
		value := d.value
		if _, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value())
				return nil
			})); err != nil {
			r.log.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
		}
	}
}
