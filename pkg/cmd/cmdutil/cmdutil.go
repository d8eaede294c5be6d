// Package cmdutil holds the bootstrap helpers shared by the commands.
package cmdutil

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the process logger and the logger for sql tracing
// from the resolved config. The process logger becomes the default.
func SetupLogger() (logger, sqlLogger *log.Logger, err error) {
	filter, err := log.WithFilter(config.LogFilter)
	if err != nil {
		return nil, nil, fmt.Errorf("log filter: %w", err)
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1), filter}
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.New(os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel), opts...)
		sqlLogger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	}
	log.ResetDefault(logger)
	return logger, sqlLogger.Named("sql"), nil
}

// ParseDuration falls back to defaultVal on invalid input.
func ParseDuration(value string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", value),
			log.Duration("default", defaultVal),
			log.ErrorField(err))
		return defaultVal
	}
	return d
}

// WaitForRequiredServices blocks until all addrs accept tcp connections.
// Empty addrs are ignored.
func WaitForRequiredServices(addrs ...string) error {
	timeout := ParseDuration(config.WaitForServices, 60*time.Second)

	var mu sync.Mutex
	var firstErr error
	wg := sync.WaitGroup{}
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := utils.WaitForTCP(addr, timeout); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	if firstErr != nil {
		return fmt.Errorf("required services not ready: %w", firstErr)
	}
	log.Debug("Required services are available")
	return nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func StartProfiling(port int) {
	if port <= 0 {
		return
	}
	log.Info("Starting profiling server on port", log.Int("port", port))
	go func() {
		//nolint:gosec // by design
		err := http.ListenAndServe(fmt.Sprintf("localhost:%d", port), nil)
		if err != nil {
			log.Error("Profiling server stopped", log.ErrorField(err))
		}
	}()
}

func SetupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}
