package capture

import (
	"context"
	"errors"
	"io"
	"time"
)

// Replay sends all frames of r to send, keeping the recorded gaps between
// frames divided by speed. A speed <= 0 sends as fast as possible.
// Returns the number of frames sent.
//
//nolint:whitespace // can't make both editor and linter happy
func Replay(
	ctx context.Context,
	r *Reader,
	send func([]byte) error,
	speed float64,
) (int, error) {
	var first time.Time
	start := time.Now()
	sent := 0
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return sent, nil
		}
		if err != nil {
			return sent, err
		}
		if first.IsZero() {
			first = f.Received
		}
		if speed > 0 {
			due := start.Add(time.Duration(float64(f.Received.Sub(first)) / speed))
			if wait := time.Until(due); wait > 0 {
				select {
				case <-ctx.Done():
					return sent, ctx.Err()
				case <-time.After(wait):
				}
			}
		} else if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := send(f.Data); err != nil {
			return sent, err
		}
		sent++
	}
}
