package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	failureStreakGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carsearch_consecutive_failures",
		Help: "Consecutive failed responses from the catalog service",
	})

	throttleWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsearch_throttle_waits_total",
		Help: "Requests delayed because of a failure streak, by level",
	}, []string{"level"})
)

// Config holds the pauses applied during a failure streak.
type Config struct {
	// ThrottleDelay is waited before each request in the warning range.
	ThrottleDelay time.Duration

	// CooldownDelay is waited before each request in the critical range.
	CooldownDelay time.Duration

	// StateTTL bounds how long a streak stays in force without updates. A
	// streak older than this is ignored by Wait and expires in Redis. Zero
	// keeps it until the next success.
	StateTTL time.Duration
}

// DefaultConfig returns the default pauses.
func DefaultConfig() Config {
	return Config{
		ThrottleDelay: 2 * time.Second,
		CooldownDelay: 30 * time.Second,
		StateTTL:      10 * time.Minute,
	}
}

// Tracker records response outcomes and paces requests.
type Tracker struct {
	store  Store
	config Config
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewTracker creates a new rate limit tracker.
func NewTracker(store Store, config Config, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// GetState returns the current failure streak.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	return t.store.Load(ctx)
}

// Record notes the outcome of one response.
func (t *Tracker) Record(ctx context.Context, success bool) error {
	now := time.Now()

	if success {
		if err := t.store.RecordSuccess(ctx, now); err != nil {
			return fmt.Errorf("record success: %w", err)
		}
		failureStreakGauge.Set(0)
		return nil
	}

	streak, err := t.store.RecordFailure(ctx, now)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	failureStreakGauge.Set(float64(streak))

	state := &RateLimitState{FailureStreak: streak, LastUpdate: now}
	state.UpdateHealth()

	switch {
	case state.NeedsCooldown():
		t.logger.Error().
			Int("failure_streak", streak).
			Dur("cooldown", t.config.CooldownDelay).
			Msg("Catalog failure streak CRITICAL - requests will cool down")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("failure_streak", streak).
			Msg("Catalog failure streak WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("failure_streak", streak).
			Msg("Catalog failure recorded")
	}

	return nil
}

// Wait delays the caller according to the current streak. It returns early
// with the context error if ctx ends during the pause.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get rate limit state: %w", err)
	}

	if state.FailureStreak > 0 && t.config.StateTTL > 0 && state.IsStale(t.config.StateTTL) {
		t.logger.Debug().
			Int("failure_streak", state.FailureStreak).
			Time("last_update", state.LastUpdate).
			Msg("Ignoring stale failure streak")
		return nil
	}

	switch {
	case state.NeedsCooldown():
		t.logger.Warn().
			Int("failure_streak", state.FailureStreak).
			Dur("wait_duration", t.config.CooldownDelay).
			Msg("Catalog failure streak critical - cooling down")
		throttleWaitsTotal.WithLabelValues("critical").Inc()
		return t.sleep(ctx, t.config.CooldownDelay)

	case state.NeedsThrottling():
		t.logger.Warn().
			Int("failure_streak", state.FailureStreak).
			Dur("wait_duration", t.config.ThrottleDelay).
			Msg("Catalog failure streak warning - throttling request")
		throttleWaitsTotal.WithLabelValues("warning").Inc()
		return t.sleep(ctx, t.config.ThrottleDelay)
	}

	return nil
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
