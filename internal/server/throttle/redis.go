package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "schoolauth:login:"
	redisWindow    = time.Minute
)

// RedisLimiter counts attempts in fixed one-minute windows shared by every
// server instance pointing at the same Redis.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
}

// NewRedisClient parses redisURL (redis://host:port/db) and checks the
// connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisLimiter allows max(perMinute, burst) attempts per window.
func NewRedisLimiter(client redis.Cmdable, perMinute, burst int) *RedisLimiter {
	limit := perMinute
	if burst > limit {
		limit = burst
	}
	return &RedisLimiter{client: client, limit: int64(limit)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := redisKeyPrefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return allowed(), fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, redisWindow).Err(); err != nil {
			return allowed(), fmt.Errorf("redis expire: %w", err)
		}
	}
	if count <= l.limit {
		return allowed(), nil
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return denied(redisWindow), fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		// key lost its expiry; start a new window
		if err := l.client.Expire(ctx, k, redisWindow).Err(); err != nil {
			return denied(redisWindow), fmt.Errorf("redis expire: %w", err)
		}
		ttl = redisWindow
	}
	return denied(ttl), nil
}
