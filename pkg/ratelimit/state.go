// Package ratelimit tracks refused catalog responses and slows requests down
// while the service keeps refusing them. Anti-bot challenges and server
// errors tend to arrive in streaks; backing off during a streak keeps the
// page retry budget from being spent in a burst.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyFailureStreak = "carsearch:rate_limit:failure_streak"
	RedisKeyLastUpdate    = "carsearch:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// FailureThresholdWarning throttles requests once this many consecutive
	// responses have failed.
	FailureThresholdWarning = 3

	// FailureThresholdCritical imposes a cooldown before the next request once
	// this many consecutive responses have failed.
	FailureThresholdCritical = 8
)

// RateLimitState is the failure streak observed against the catalog service.
// With a Redis store it is shared by every process searching the same service.
type RateLimitState struct {
	// FailureStreak counts consecutive failed responses. Any success resets it.
	FailureStreak int `json:"failure_streak"`

	// LastUpdate is when a response was last recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true while the streak is below FailureThresholdWarning.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale reports whether the last recorded response is older than maxAge.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCooldown returns true if the next request should wait out a cooldown.
func (s *RateLimitState) NeedsCooldown() bool {
	return s.FailureStreak >= FailureThresholdCritical
}

// NeedsThrottling returns true if the next request should be delayed briefly.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.FailureStreak >= FailureThresholdWarning && !s.NeedsCooldown()
}

// UpdateHealth updates the IsHealthy field based on the current streak.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.FailureStreak < FailureThresholdWarning
}
