package verification

import (
	"context"
	"sync"
	"time"

	"missedcall/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is a rate limiter verdict.
type Decision struct {
	Allowed bool
	RetryAt time.Time
}

// RateLimiter admits at most Limit requests per key in any sliding Window.
// Only admitted requests count against the limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// RedisLimiter keeps one sorted set of admission timestamps per key.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "otp:rl:", limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	res, err := utils.SlidingWindowAllow(ctx, l.rdb, l.prefix+key, l.limit, l.window, now, uuid.NewString())
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: res.Allowed, RetryAt: res.RetryAt}, nil
}

// MemoryLimiter is the in-process equivalent of RedisLimiter, for tests and single-node dev.
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, hits: make(map[string][]time.Time)}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.limit {
		l.hits[key] = kept
		return Decision{Allowed: false, RetryAt: kept[0].Add(l.window)}, nil
	}
	l.hits[key] = append(kept, now)
	return Decision{Allowed: true}, nil
}
