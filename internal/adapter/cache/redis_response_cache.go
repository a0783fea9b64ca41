package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andeslabs/bancora/internal/repository"
)

// RedisResponseCache implements repository.ResponseCache backed by Redis.
type RedisResponseCache struct {
	client redis.UniversalClient
	prefix string
}

var _ repository.ResponseCache = (*RedisResponseCache)(nil)

// NewRedisResponseCache constructs a Redis-backed response cache.
func NewRedisResponseCache(client redis.UniversalClient, prefix string) *RedisResponseCache {
	return &RedisResponseCache{client: client, prefix: prefix}
}

// Get loads a cached payload. A miss returns nil bytes and no error.
func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load cache entry: %w", err)
	}
	return payload, nil
}

// Set stores a payload with TTL.
func (c *RedisResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	return nil
}
