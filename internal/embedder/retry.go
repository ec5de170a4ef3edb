package embedder

import (
	"context"
	"errors"
	"time"
)

// Retry defaults
const (
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int           // Maximum number of attempts
	BaseDelay  time.Duration // Initial delay between attempts
	MaxDelay   time.Duration // Maximum delay between attempts
	Multiplier float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// Retry runs fn with exponential backoff. Embedders never retry on their own;
// callers that want retries wrap their calls with this. Only provider errors
// are retried, and context cancellation stops retrying.
func Retry[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay
	attempts := max(config.MaxRetries, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !errors.Is(err, ErrProviderFailed) {
			return zero, err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
