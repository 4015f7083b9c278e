// Package retry provides exponential backoff retry for transient failures,
// used when establishing database and cache connections.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fund-tracker/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns a default retry configuration.
// Pattern: 1s, 2s, 4s, 8s, 16s, capped at 30s.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is a function that can be retried
type Func func(ctx context.Context, attempt int) error

// WithBackoff executes fn with exponential backoff, returning the last error
// when all attempts fail.
func WithBackoff(ctx context.Context, config *Config, fn Func) error {
	logger := logging.GetGlobalLogger()

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				logger.WithField("attempts", attempt).Info("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := calculateDelay(config, attempt)
		logger.WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": config.MaxAttempts,
			"delay":        delay.String(),
			"error":        err.Error(),
		}).Warn("Operation failed, retrying with exponential backoff")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// WithDefaults executes fn with the default backoff configuration
func WithDefaults(ctx context.Context, fn Func) error {
	return WithBackoff(ctx, DefaultConfig(), fn)
}

// calculateDelay computes initialDelay * multiplier^(attempt-1), capped
func calculateDelay(config *Config, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
