package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/resilience"
)

const keyPrefix = "ratelimit:terms:"

// WindowCounter is satisfied by *redis.Client.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisLimiter counts requests per key in fixed windows stored in Redis.
// Calls are bounded by callTimeout and guarded by a circuit breaker; when
// Redis cannot answer the request is allowed and the error returned.
type RedisLimiter struct {
	counter     WindowCounter
	breaker     *resilience.CircuitBreaker
	limit       int
	window      time.Duration
	callTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewRedis(counter WindowCounter, breaker *resilience.CircuitBreaker, limit int, window, callTimeout time.Duration) *RedisLimiter {
	return &RedisLimiter{
		counter:     counter,
		breaker:     breaker,
		limit:       limit,
		window:      window,
		callTimeout: callTimeout,
		now:         time.Now,
		logger:      slog.Default().With("component", "redis-ratelimit"),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := l.now().Truncate(l.window).Unix()
	redisKey := fmt.Sprintf("%s%s:%d", keyPrefix, key, windowStart)

	var count int64
	err := l.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, l.callTimeout, "ratelimit-incr", func(ctx context.Context) error {
			n, err := l.counter.IncrWindow(ctx, redisKey, l.window)
			if err != nil {
				return err
			}
			count = n
			return nil
		})
	})
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request", "error", err)
		return true, fmt.Errorf("checking rate limit for %s: %w", key, err)
	}
	return count <= int64(l.limit), nil
}
