package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts uint
	Delay       time.Duration
	// Fixed keeps the delay constant between attempts instead of backing
	// off. Gateway calls use fixed delays to respect rate limits.
	Fixed    bool
	MaxDelay time.Duration
}

// DefaultConfig returns default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do executes a function, retrying every error.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoIf(ctx, cfg, func(error) bool { return true }, fn)
}

// DoIf executes a function, retrying only errors for which retryIf returns
// true. Non-retryable errors surface immediately.
func DoIf(ctx context.Context, cfg Config, retryIf func(error) bool, fn func() error) error {
	delayType := retry.BackOffDelay
	if cfg.Fixed {
		delayType = retry.FixedDelay
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.Delay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.DelayType(delayType),
		retry.RetryIf(retryIf),
		retry.LastErrorOnly(true),
	)
}

// DoWithResult executes a function with retries and returns a result.
func DoWithResult[T any](ctx context.Context, cfg Config, retryIf func(error) bool, fn func() (T, error)) (T, error) {
	var result T
	err := DoIf(ctx, cfg, retryIf, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
