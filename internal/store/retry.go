package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/code-arena/internal/shared"
)

const (
	writeMaxRetries = 3
	writeBaseDelay  = 100 * time.Millisecond
)

// retryWrite runs fn, retrying busy or serialization failures with
// exponential backoff: 100ms, 200ms.
func retryWrite(ctx context.Context, op string, fn func() error) error {
	for i := 0; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !shared.IsRetryableWriteError(err) {
			return err
		}
		if i == writeMaxRetries-1 {
			return fmt.Errorf("%s failed after %d attempts: %w", op, writeMaxRetries, err)
		}

		delay := writeBaseDelay * time.Duration(1<<i)
		slog.Debug("Leaderboard write conflicted, retrying",
			"op", op,
			"attempt", i+1,
			"delay", delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
}
