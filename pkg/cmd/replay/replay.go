package replay

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/capture"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
)

var (
	addr  string
	speed float64
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <capture file>",
		Short: "sends a recorded capture to a UDP receiver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cmdutil.SetupLogger(); err != nil {
				return err
			}
			ctx, cancel := cmdutil.SignalContext()
			defer cancel()
			return replayFile(ctx, args[0], addr, speed)
		},
	}
	cmd.Flags().StringVar(&addr,
		"addr",
		"localhost:20777",
		"UDP address of the receiver")
	cmd.Flags().Float64Var(&speed, "speed", 1,
		"Replay speed (0 means: go as fast as possible)")
	return cmd
}

func replayFile(ctx context.Context, file, target string, speed float64) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", target)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("replaying capture",
		log.String("file", file),
		log.String("version", r.Version()),
		log.String("target", target),
		log.Float64("speed", speed))
	sent, err := capture.Replay(ctx, r, func(b []byte) error {
		_, wErr := conn.Write(b)
		return wErr
	}, speed)
	log.Info("replay done", log.Int("datagrams", sent))
	if ctx.Err() != nil {
		return nil
	}
	return err
}
