// Package cache manages the Redis connection used for pub/sub fan-out and
// rate limiting.
package cache

import (
	"context"
	"time"

	"campusfind/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client for the given address. Redis is optional
// infrastructure here: when it is unreachable the server runs single-instance
// with direct hub broadcasts, so a failed ping returns nil rather than an
// error.
func Connect(addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without it", "addr", addr, "error", err.Error())
		_ = client.Close()
		return nil
	}

	middleware.Logger.Info("Redis connected successfully", "addr", addr)
	return client
}
