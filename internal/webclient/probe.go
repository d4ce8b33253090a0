package webclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/pagecheck/internal/logging"
)

// ErrNotReady is returned by WaitReady when the server never answered in time.
var ErrNotReady = errors.New("server not ready")

// ProbeOptions bounds WaitReady.
type ProbeOptions struct {
	Timeout  time.Duration // overall; 0 means 30s
	Interval time.Duration // between attempts; 0 means 250ms
}

// WaitReady checks url until the server answers with a status below 500 or
// opts.Timeout elapses.
func WaitReady(ctx context.Context, wc WebClient, url string, opts ProbeOptions, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	attempts := 0
	var lastErr error
	for {
		attempts++
		resp, err := wc.Check(ctx, url)
		switch {
		case err != nil:
			lastErr = err
		case !resp.Ready():
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		default:
			logger.Debug("server ready",
				logging.Field{Key: "url", Value: url},
				logging.Field{Key: "status", Value: resp.StatusCode},
				logging.Field{Key: "attempts", Value: attempts},
				logging.Field{Key: "elapsed", Value: time.Since(start).Round(time.Millisecond).String()})
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s after %d attempts: %v", ErrNotReady, url, attempts, lastErr)
		case <-time.After(interval):
		}
	}
}
