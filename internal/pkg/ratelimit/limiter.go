// Package ratelimit admits calls to the remote search API. The Redis limiter
// shares its budget across service instances; the local limiter is used when
// no Redis is configured.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis_rate/v10"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"golang.org/x/time/rate"
)

// Limiter returns remotesearch.ErrRateLimited when the call for key must not
// proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

type RedisLimiter struct {
	limiter *redis_rate.Limiter
	rps     int
}

func NewRedisLimiter(limiter *redis_rate.Limiter, rps int) *RedisLimiter {
	return &RedisLimiter{
		limiter: limiter,
		rps:     rps,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	res, err := l.limiter.Allow(ctx, fmt.Sprintf("limit:%s", key), redis_rate.PerSecond(l.rps))
	if err != nil {
		return fmt.Errorf("failed to rate limit: %w", err)
	}

	if res.Allowed == 0 {
		return remotesearch.ErrRateLimited
	}

	return nil
}

type LocalLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rps      int
	burst    int
}

func NewLocalLimiter(rps, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}

	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) error {
	if !l.get(key).Allow() {
		return remotesearch.ErrRateLimited
	}

	return nil
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[key] = limiter
	}

	return limiter
}

// Unlimited admits every call.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) error { return nil }
