// Package cache holds the Redis-backed and in-process caches: idempotency
// keys for e-invoice submissions and the fiscal code lookup cache.
package cache

import (
	"context"
	"fmt"
	"time"

	infraconfig "github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisOptions converts configuration to client options
func RedisOptions(cfg infraconfig.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Connect creates a client and pings the server
func Connect(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
