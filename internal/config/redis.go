package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_ADDR (or REDIS_HOST +
// REDIS_PORT), REDIS_PASSWORD and REDIS_DB.  Redis backs the rate limiter
// and the public response cache; both degrade gracefully, so when the
// server is unreachable this returns nil and callers disable those
// features instead of failing startup.
func NewRedisClient() *redis.Client {
	addr := getenv("REDIS_ADDR", "")
	if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
