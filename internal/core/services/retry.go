package services

import (
	"context"
	"errors"
	"time"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// retryPolicy bounds retries for transient storage failures.
type retryPolicy struct {
	attempts int
	base     time.Duration
}

var defaultRetry = retryPolicy{attempts: 3, base: 50 * time.Millisecond}

// run invokes fn, retrying with doubling backoff while the error is a
// storage failure. ErrNotFound and other permanent errors surface
// immediately.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	var err error
	delay := p.base
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrStorage) {
			return err
		}
	}
	return err
}
