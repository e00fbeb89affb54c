package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

// withRetry runs connect until it succeeds, attempts run out or ctx ends.
// The backoff doubles from initialBackoff up to maxBackoff.
func withRetry(ctx context.Context, log zerolog.Logger, target string, attempts int, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = connect(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		log.Warn().
			Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("Connection failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", target, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return fmt.Errorf("%s after %d attempts: %w", target, attempts, err)
}
