// Package retry repeats operations that failed with a transient error.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxTries        = 5
	DefaultInitialInterval = 20 * time.Millisecond
	DefaultMaxInterval     = 500 * time.Millisecond
)

// Config holds the retry budget. Zero fields take the defaults.
type Config struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retrier runs operations until they succeed, fail permanently or run out of tries
type Retrier struct {
	maxTries        uint
	initialInterval time.Duration
	maxInterval     time.Duration
	retryable       func(error) bool
}

// New creates a Retrier repeating only the errors retryable accepts
func New(cfg *Config, retryable func(error) bool) *Retrier {
	r := &Retrier{
		maxTries:        DefaultMaxTries,
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
		retryable:       retryable,
	}
	if cfg != nil {
		if cfg.MaxTries > 0 {
			r.maxTries = cfg.MaxTries
		}
		if cfg.InitialInterval > 0 {
			r.initialInterval = cfg.InitialInterval
		}
		if cfg.MaxInterval > 0 {
			r.maxInterval = cfg.MaxInterval
		}
	}
	if r.retryable == nil {
		r.retryable = func(error) bool { return false }
	}
	return r
}

// Do runs op with exponential backoff. The last error is returned unchanged.
func Do[T any](ctx context.Context, r *Retrier, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval

	return backoff.Retry(ctx, func() (T, error) {
		result, err := op()
		if err != nil && !r.retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxTries),
	)
}
