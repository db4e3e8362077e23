// Package ratelimit implements fixed-window request counters in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mateuscastro5/gym-api/internal/config"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrRedisUnavailable = errors.New("rate limiter backend unavailable")
)

const keyPrefix = "gym:rl:"

// Limiter allows at most limit hits per key within each window.
type Limiter struct {
	redis  redis.UniversalClient
	limit  int
	window time.Duration
}

func New(client redis.UniversalClient, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{redis: client, limit: limit, window: window}
}

// NewClient opens a Redis client for cfg. It does not dial.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Allow counts one hit for scope/key and returns ErrRateLimited once the
// window budget is spent.
func (l *Limiter) Allow(ctx context.Context, scope, key string) error {
	count, err := l.incrementWithTTL(ctx, keyPrefix+scope+":"+key)
	if err != nil {
		return err
	}
	if count > int64(l.limit) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// window starts on the first hit
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
