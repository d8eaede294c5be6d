package serve

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/db/postgres"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence/boltstore"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence/natsbus"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence/pgstore"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils"
)

const (
	storePostgres = "postgres"
	storeNats     = "nats"
	storeBolt     = "bolt"
	storeNone     = "none"
)

// parseStores validates the comma separated store list.
// "none" may not be combined with other stores.
func parseStores(value string) ([]string, error) {
	ret := make([]string, 0)
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		switch s {
		case "", storeNone:
			continue
		case storePostgres, storeNats, storeBolt:
			if !slices.Contains(ret, s) {
				ret = append(ret, s)
			}
		default:
			return nil, fmt.Errorf("unknown store %q", s)
		}
	}
	if len(ret) > 0 && strings.Contains(value, storeNone) {
		return nil, fmt.Errorf("store %q can't be combined with other stores", storeNone)
	}
	return ret, nil
}

// serviceAddrs returns the tcp addresses the selected stores depend on.
func serviceAddrs(stores []string) []string {
	ret := make([]string, 0, len(stores))
	for _, s := range stores {
		switch s {
		case storePostgres:
			ret = append(ret, utils.ExtractFromDBURL(config.DB))
		case storeNats:
			ret = append(ret, utils.ExtractFromNatsURL(config.NatsURL))
		}
	}
	return ret
}

type backends struct {
	store   persistence.Multi
	bus     *natsbus.Bus
	reader  persistence.Reader // first store that keeps history
	closers []func()
}

func (b *backends) setReader(r persistence.Reader) {
	if b.reader == nil {
		b.reader = r
	}
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

//nolint:whitespace // can't make both editor and linter happy
func openBackends(
	ctx context.Context,
	stores []string,
	pgTraceOption postgres.PoolConfigOption,
) (*backends, error) {
	b := &backends{}
	for _, s := range stores {
		var err error
		switch s {
		case storePostgres:
			err = b.openPostgres(ctx, pgTraceOption)
		case storeNats:
			err = b.openNats(ctx)
		case storeBolt:
			err = b.openBolt()
		}
		if err != nil {
			b.close()
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		log.Info("store enabled", log.String("store", s))
	}
	return b, nil
}

func (b *backends) openPostgres(ctx context.Context, opt postgres.PoolConfigOption) error {
	pool, err := postgres.NewPool(ctx, config.DB, opt)
	if err != nil {
		return err
	}
	st := pgstore.New(pool)
	b.store = append(b.store, st)
	b.setReader(st)
	b.closers = append(b.closers, pool.Close)
	return nil
}

func (b *backends) openNats(ctx context.Context) error {
	nc, err := nats.Connect(config.NatsURL, nats.Name("fts"))
	if err != nil {
		return err
	}
	bus, err := natsbus.New(ctx, nc,
		natsbus.WithKVInterval(cmdutil.ParseDuration(config.KVUpdateInterval, time.Second)))
	if err != nil {
		nc.Close()
		return err
	}
	b.bus = bus
	b.store = append(b.store, bus)
	b.closers = append(b.closers, func() {
		if err := nc.Drain(); err != nil {
			log.Warn("nats drain", log.ErrorField(err))
		}
	})
	return nil
}

func (b *backends) openBolt() error {
	s, err := boltstore.Open(config.BoltFile)
	if err != nil {
		return err
	}
	b.store = append(b.store, s)
	b.setReader(s)
	b.closers = append(b.closers, func() {
		if err := s.Close(); err != nil {
			log.Warn("bolt close", log.ErrorField(err))
		}
	})
	return nil
}
