package record

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/capture"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/receiver"
)

const flushInterval = 5 * time.Second

func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <capture file>",
		Short: "writes the raw telemetry feed to a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cmdutil.SetupLogger(); err != nil {
				return err
			}
			ctx, cancel := cmdutil.SignalContext()
			defer cancel()
			return recordFeed(ctx, args[0], config.ListenAddr, nil)
		},
	}
	cmd.Flags().StringVarP(&config.ListenAddr,
		"listen-addr",
		"l",
		receiver.DefaultAddr,
		"UDP address to receive the telemetry feed on")
	return cmd
}

// recordFeed records until ctx is done. started is called with the
// receiver once it is bound.
//
//nolint:whitespace // can't make both editor and linter happy
func recordFeed(
	ctx context.Context,
	file, addr string,
	started func(*receiver.Receiver),
) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := capture.NewWriter(f)
	if err != nil {
		return err
	}

	rcv := receiver.New(
		receiver.WithAddr(addr),
		receiver.WithRecorder(w),
	)
	if err = rcv.Start(ctx); err != nil {
		return err
	}
	log.Info("recording", log.String("file", file), log.Stringer("addr", rcv.Addr()))
	if started != nil {
		started(rcv)
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-ticker.C:
			if err = w.Flush(); err != nil {
				log.Warn("flush failed", log.ErrorField(err))
			}
		}
	}
	rcv.Stop()
	log.Info("recording stopped", log.Any("stats", rcv.Stats()))
	return w.Flush()
}
