// Package redis limits verification attempts with Redis fixed windows.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/docchat-server/internal/model"
)

var _ model.AttemptLimiter = (*AttemptLimiter)(nil)

// AttemptLimiter counts attempts per key in Redis. A nil limiter, or one
// without a client, allows everything.
type AttemptLimiter struct {
	client      redis.UniversalClient
	window      time.Duration
	maxAttempts int64
	prefix      string
}

// NewAttemptLimiter creates a limiter allowing maxAttempts per key within window.
func NewAttemptLimiter(client redis.UniversalClient, window time.Duration, maxAttempts int) *AttemptLimiter {
	return &AttemptLimiter{
		client:      client,
		window:      window,
		maxAttempts: int64(maxAttempts),
		prefix:      "docchat:attempts:",
	}
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Allow records one attempt for key. It returns model.ErrTooManyAttempts once
// the window budget is exceeded and wraps model.ErrLimiterUnavailable on Redis failures.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}

	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", model.ErrLimiterUnavailable, err)
		}
	}

	if count > l.maxAttempts {
		return model.ErrTooManyAttempts
	}

	return nil
}

// Reset forgets every attempt recorded for key.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrLimiterUnavailable, err)
	}
	return nil
}
