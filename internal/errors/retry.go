package errors

import (
	"context"
	"math"
	"math/rand"
	"time"

	"copilot/internal/logging"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries   int           // Retries after the initial attempt (default: 3)
	BaseDelay    time.Duration // Base delay for exponential backoff (default: 2s)
	MaxDelay     time.Duration // Maximum delay between retries (default: 30s)
	JitterFactor float64       // Jitter factor for randomization (0 = deterministic)
}

// DefaultRetryConfig returns the downstream-call policy: three retries with
// backoff delays of 2s, 4s, 8s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Retry executes a function with exponential backoff retry logic.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	_, err := RetryWithResult(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, nil)
	return err
}

// RetryWithResult executes a function that returns a result with retry logic.
// Cancellation is observed before every attempt and during every backoff
// sleep; an abort surfaces as KindCancelled rather than the last attempt's
// error.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error), logger logging.Logger) (T, error) {
	logger = logging.OrNop(logger)

	var lastErr error
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			logger.Debug("Context cancelled, stopping retries")
			return zero, Wrap(KindCancelled, ctx.Err(), "cancelled before attempt %d", attempt+1)
		default:
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("Retry succeeded on attempt %d/%d", attempt+1, config.MaxRetries+1)
			}
			return result, nil
		}

		lastErr = err
		logger.Debug("Attempt %d/%d failed: %v", attempt+1, config.MaxRetries+1, err)

		if IsCancelled(err) {
			return zero, err
		}

		if !IsTransient(err) {
			logger.Debug("Error is not transient, stopping retries")
			return zero, err
		}

		if attempt == config.MaxRetries {
			logger.Warn("Max retries (%d) exhausted", config.MaxRetries)
			break
		}

		delay := Backoff(attempt, config)
		logger.Debug("Waiting %v before retry %d", delay, attempt+2)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.Debug("Context cancelled during backoff")
			return zero, Wrap(KindCancelled, ctx.Err(), "cancelled during backoff")
		}
	}

	return zero, Wrap(KindUpstreamUnavailable, lastErr, "max retries exceeded")
}

// Backoff computes the delay before retry number attempt+1.
// With the default 2s base: attempt 0 -> 2s, attempt 1 -> 4s, attempt 2 -> 8s.
func Backoff(attempt int, config RetryConfig) time.Duration {
	base := config.BaseDelay
	if base <= 0 {
		base = 2 * time.Second
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))

	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if config.JitterFactor > 0 {
		jitter := float64(delay) * config.JitterFactor
		delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
		if delay < 0 {
			delay = base
		}
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return delay
}
