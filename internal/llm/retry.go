package llm

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy is the reattempt discipline for gateway calls: how many
// attempts, how long to wait between them, and which errors are worth
// retrying at all.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries capacity errors up to 3 attempts with
// exponential backoff (1s, 2s, 4s). Everything else fails fast.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		Retryable:   func(err error) bool { return errors.Is(err, ErrCapacity) },
	}
}

// NoRetry performs a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (p RetryPolicy) wait(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt]
}

// Do runs fn under the policy. The last error is returned when all
// attempts are spent or the error is not retryable.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(p.wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
