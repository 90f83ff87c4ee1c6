package search

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig spaces out repeated attempts at the same page. It does not
// set how many attempts are made; that is SearchOptions.MaxAttemptsPerPage.
type RetryConfig struct {
	// InitialBackoff is waited after the first failed attempt. Zero disables
	// waiting between attempts.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each further failure.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Backoff returns the wait after the given failed attempt (1-based), with
// ±20% jitter.
func (r RetryConfig) Backoff(attempt int) time.Duration {
	if r.InitialBackoff <= 0 {
		return 0
	}

	backoff := float64(r.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= r.BackoffMultiplier
		if r.MaxBackoff > 0 && backoff > float64(r.MaxBackoff) {
			backoff = float64(r.MaxBackoff)
			break
		}
	}

	jitter := time.Duration(backoff * (0.8 + rand.Float64()*0.4))
	if r.MaxBackoff > 0 && jitter > r.MaxBackoff {
		jitter = r.MaxBackoff
	}
	return jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
