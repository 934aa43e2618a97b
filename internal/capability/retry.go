package capability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy retries malformed capability responses. MaxAttempts of 0 retries
// until a well formed reply arrives. Unavailable faults are retried only while
// the number of consecutive ones stays within MaxUnavailable, which acts as a
// circuit breaker for real outages. Constraint violations and cancellation are
// never retried.
type RetryPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	MaxUnavailable int
	Logger         *slog.Logger
}

// RetryStats reports what a RetryPolicy.Do call went through.
type RetryStats struct {
	Attempts    int
	Malformed   int
	Unavailable int
}

// Do runs fn until it succeeds or the policy gives up. The returned error is
// the last one fn produced, or the context error.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) (RetryStats, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu          sync.Mutex
		stats       RetryStats
		consecutive int
	)

	err := retry.Do(
		func() error {
			err := fn(ctx)

			mu.Lock()
			defer mu.Unlock()
			stats.Attempts++
			switch {
			case err == nil:
			case errors.Is(err, ErrMalformed):
				stats.Malformed++
				consecutive = 0
			case errors.Is(err, ErrUnavailable):
				stats.Unavailable++
				consecutive++
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.MaxAttempts)),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			if errors.Is(err, ErrMalformed) {
				return true
			}
			if errors.Is(err, ErrUnavailable) {
				mu.Lock()
				defer mu.Unlock()
				return consecutive <= p.MaxUnavailable
			}
			return false
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying capability call", "call", name, "attempt", n+1, "error", err)
		}),
	)

	mu.Lock()
	defer mu.Unlock()
	return stats, err
}
