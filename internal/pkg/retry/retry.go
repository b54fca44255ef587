package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times with exponential backoff between tries.
// The last error is returned when all attempts fail. Context cancellation
// stops the loop early.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay << uint(i)):
		}
	}
	return err
}
