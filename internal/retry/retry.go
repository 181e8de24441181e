// Package retry provides bounded retry with linear or exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines bounded retry behavior. Every retry loop in the pipeline
// carries an explicit attempt ceiling so callers get a deterministic contract
// instead of an unbounded spin on flaky external I/O.
type Config struct {
	MaxAttempts    int           // Maximum number of attempts (including the first)
	InitialBackoff time.Duration // Backoff after the first failure
	MaxBackoff     time.Duration // Backoff ceiling
	Multiplier     float64       // Backoff growth factor; <=1 means linear growth
}

// DefaultConfig returns a sensible default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Linear returns a config with linearly growing backoff
// (backoff, 2*backoff, 3*backoff, ...), used for database connects.
func Linear(attempts int, backoff time.Duration) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialBackoff: backoff,
		MaxBackoff:     backoff * time.Duration(attempts),
		Multiplier:     1.0,
	}
}

// WithRetry executes the given function with retry logic
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempt+1).
					Msg("Retry succeeded")
			}
			return nil
		}

		lastErr = err

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			backoff := calculateBackoff(attempt, cfg)

			log.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// calculateBackoff calculates the backoff duration for the given attempt
func calculateBackoff(attempt int, cfg Config) time.Duration {
	var backoff float64
	if cfg.Multiplier <= 1 {
		// Linear: initial * attempt number
		backoff = float64(cfg.InitialBackoff) * float64(attempt+1)
	} else {
		backoff = float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	}

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	return time.Duration(backoff)
}
