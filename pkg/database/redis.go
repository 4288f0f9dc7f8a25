package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/blitz-ai/feedback-console/pkg/config"
)

// NewRedisClient connects the cache backend's Redis client. Returns nil
// when Redis is not configured; the caller falls back to the in-process
// backend.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return client, nil
}
