package serve

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/api"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/capture"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/db/postgres"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/livestate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/receiver"
)

var recordFile string

//nolint:funlen // by design
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "receives the telemetry feed and maintains the live state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ListenAddr,
		"listen-addr",
		"l",
		receiver.DefaultAddr,
		"UDP address to receive the telemetry feed on")
	cmd.Flags().StringVar(&config.HTTPAddr,
		"http-addr",
		"",
		"listen address of the status api (empty disables the api)")
	cmd.Flags().StringVar(&config.Store,
		"store",
		"none",
		"comma separated list of stores (postgres, nats, bolt, none)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"nats://localhost:4222",
		"URL of the NATS server")
	cmd.Flags().StringVar(&config.BoltFile,
		"bolt-file",
		"fts.db",
		"file used by the bolt store")
	cmd.Flags().StringVar(&config.CarStatusLayout,
		"car-status-layout",
		"55",
		"record layout of car status packets (55, 58, auto)")
	cmd.Flags().IntVar(&config.HistoryCapacity,
		"history-capacity",
		livestate.DefaultHistoryCapacity,
		"number of samples kept per telemetry history")
	cmd.Flags().StringVar(&config.WeatherInterval,
		"weather-interval",
		livestate.DefaultWeatherInterval.String(),
		"minimum duration between two stored weather samples")
	cmd.Flags().StringVar(&config.KVUpdateInterval,
		"kv-update-interval",
		"1s",
		"minimum duration between two snapshot updates in the NATS KV bucket")
	cmd.Flags().IntVar(&config.QueueSize,
		"queue-size",
		persistence.DefaultQueueSize,
		"capacity of the persistence queue")
	cmd.Flags().StringVar(&recordFile,
		"record",
		"",
		"if set, all received datagrams are written to this capture file")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout for console)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer() error {
	var telemetry *config.Telemetry
	_, sqlLogger, err := cmdutil.SetupLogger()
	if err != nil {
		return err
	}
	log.Debug("Config:",
		log.String("listenAddr", config.ListenAddr),
		log.String("httpAddr", config.HTTPAddr),
		log.String("store", config.Store),
		log.String("carStatusLayout", config.CarStatusLayout),
	)
	cmdutil.StartProfiling(config.ProfilingPort)

	layout, err := packet.ParseCarStatusLayout(config.CarStatusLayout)
	if err != nil {
		return err
	}
	log.Info("using car status layout", log.String("layout", config.CarStatusLayout))
	stores, err := parseStores(config.Store)
	if err != nil {
		return err
	}
	if err = cmdutil.WaitForRequiredServices(serviceAddrs(stores)...); err != nil {
		return err
	}

	pgTraceOption := postgres.WithTracer(sqlLogger, log.DebugLevel)
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(context.Background()); err == nil {
			pgTraceOption = postgres.WithOtlpTracer()
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	be, err := openBackends(ctx, stores, pgTraceOption)
	if err != nil {
		return err
	}
	defer be.close()

	var gateway persistence.Gateway = persistence.Discard{}
	var async *persistence.Async
	if len(be.store) > 0 {
		async = persistence.NewAsync(be.store, persistence.WithQueueSize(config.QueueSize))
		gateway = async
	}

	agg := livestate.New(
		livestate.WithGateway(gateway),
		livestate.WithHistoryCapacity(config.HistoryCapacity),
		livestate.WithWeatherInterval(
			cmdutil.ParseDuration(config.WeatherInterval, livestate.DefaultWeatherInterval)),
	)
	defer agg.Close()

	packets := make(chan packet.Packet, 256)
	rcvOpts := []receiver.Option{
		receiver.WithAddr(config.ListenAddr),
		receiver.WithDecoder(packet.NewDecoder(packet.WithCarStatusLayout(layout))),
		receiver.WithOutput(packets),
		receiver.WithLivenessHandler(agg.SetConnected),
	}
	var recorder *capture.Writer
	if recordFile != "" {
		f, fErr := os.Create(recordFile)
		if fErr != nil {
			return fErr
		}
		defer f.Close()
		if recorder, err = capture.NewWriter(f); err != nil {
			return err
		}
		rcvOpts = append(rcvOpts, receiver.WithRecorder(recorder))
	}
	rcv := receiver.New(rcvOpts...)
	if err = rcv.Start(ctx); err != nil {
		log.Error("receiver could not be started", log.ErrorField(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return agg.Run(gctx, packets)
	})
	if be.bus != nil {
		changes := agg.Changes()
		g.Go(func() error {
			return be.bus.MirrorSnapshots(gctx, changes)
		})
	}
	if config.HTTPAddr != "" {
		apiOpts := []api.Option{api.WithFeedStatus(rcv)}
		if async != nil {
			apiOpts = append(apiOpts, api.WithPersistenceStats(async.Stats))
		}
		if be.reader != nil {
			apiOpts = append(apiOpts, api.WithHistory(be.reader))
		}
		srv := api.New(config.HTTPAddr, agg, apiOpts...)
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}
	log.Info("Server started")
	cmdutil.SetupGoRoutinesDump()

	err = g.Wait()
	log.Debug("shutting down", log.ErrorField(err))
	rcv.Stop()
	if recorder != nil {
		if fErr := recorder.Flush(); fErr != nil {
			log.Warn("could not flush capture", log.ErrorField(fErr))
		}
	}
	if async != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if cErr := async.Close(closeCtx); cErr != nil {
			log.Warn("pending writes lost", log.ErrorField(cErr))
		}
		log.Info("persistence stats", log.Any("stats", async.Stats()))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return err
}
