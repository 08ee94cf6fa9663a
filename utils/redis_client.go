package utils

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions accepts either a redis:// URL or a bare host:port address.
func RedisOptions(url string) *redis.Options {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: strings.TrimSpace(url)}
	}

	// Rate limiting and the session cache are small, latency bound workloads.
	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	return opts
}

// NewRedisClient connects to redis. An unreachable server is only logged:
// the rate limiter and the session cache fail open and /health reports it.
func NewRedisClient(url string) *redis.Client {
	client := redis.NewClient(RedisOptions(url))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis is not reachable", "addr", client.Options().Addr, "error", err)
		return client
	}

	slog.Info("Connected to redis", "addr", client.Options().Addr)
	return client
}

// RedisHealthCheck pings redis with a short timeout derived from ctx.
func RedisHealthCheck(ctx context.Context, client redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
