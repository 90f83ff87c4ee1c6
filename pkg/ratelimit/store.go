package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the failure streak between requests.
type Store interface {
	// Load returns the stored state, or a zero-streak state if none exists.
	Load(ctx context.Context) (*RateLimitState, error)

	// RecordFailure extends the streak and returns its new length.
	RecordFailure(ctx context.Context, at time.Time) (int, error)

	// RecordSuccess ends the streak.
	RecordSuccess(ctx context.Context, at time.Time) error
}

// MemoryStore keeps the streak in process. The zero value is ready to use.
type MemoryStore struct {
	mu         sync.Mutex
	streak     int
	lastUpdate time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*RateLimitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &RateLimitState{FailureStreak: m.streak, LastUpdate: m.lastUpdate}
	state.UpdateHealth()
	return state, nil
}

func (m *MemoryStore) RecordFailure(_ context.Context, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streak++
	m.lastUpdate = at
	return m.streak, nil
}

func (m *MemoryStore) RecordSuccess(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streak = 0
	m.lastUpdate = at
	return nil
}

// RedisStore shares the streak across processes. Keys expire after ttl
// without updates, so a streak left by a finished run does not outlive it.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (*RateLimitState, error) {
	streak, err := r.redis.Get(ctx, RedisKeyFailureStreak).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get failure streak: %w", err)
	}

	lastUpdateStr, err := r.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	state := &RateLimitState{FailureStreak: streak}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}
	state.UpdateHealth()

	return state, nil
}

func (r *RedisStore) RecordFailure(ctx context.Context, at time.Time) (int, error) {
	lastUpdateJSON, err := json.Marshal(at)
	if err != nil {
		return 0, fmt.Errorf("marshal last update: %w", err)
	}

	pipe := r.redis.TxPipeline()
	incr := pipe.Incr(ctx, RedisKeyFailureStreak)
	pipe.Expire(ctx, RedisKeyFailureStreak, r.ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("store failure streak in redis: %w", err)
	}

	return int(incr.Val()), nil
}

func (r *RedisStore) RecordSuccess(ctx context.Context, at time.Time) error {
	lastUpdateJSON, err := json.Marshal(at)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, RedisKeyFailureStreak)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("reset failure streak in redis: %w", err)
	}
	return nil
}
