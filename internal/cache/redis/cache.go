// Package redis provides the Redis metadata cache backend.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tubedash/tubedash/types"
)

// Cache stores cached metadata in Redis under a key prefix, so several
// services can share one database without colliding.
type Cache struct {
	client    *redis.Client
	keyPrefix string
}

// New creates a Redis-backed cache using an already connected client. The
// caller owns the client's lifecycle.
func New(client *redis.Client, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *Cache) redisKey(key string) string {
	return c.keyPrefix + ":" + key
}

// Get returns the cached value, or types.ErrCacheMiss when absent. Expiry is
// handled by Redis key TTLs.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, types.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with the given ttl. A ttl of zero stores it
// without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

var _ types.Cache = (*Cache)(nil)
