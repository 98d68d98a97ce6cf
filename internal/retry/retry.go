// Package retry runs an operation again on transient failures with a
// bounded, doubling backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how often and how fast to retry. Retryable decides
// whether an error is worth another attempt; nil means retry nothing.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool

	// Sleep overrides the delay between attempts in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a policy that retries errors matching target.
func New(maxAttempts int, baseDelay, maxDelay time.Duration, target error) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		Retryable:   func(err error) bool { return errors.Is(err, target) },
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or
// attempts run out. The delay starts at BaseDelay and doubles each
// attempt, capped at MaxDelay.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
