// Package memcache provides the Memcached metadata cache backend.
package memcache

import (
	"context"
	"fmt"
	"time"

	gomemcache "github.com/bradfitz/gomemcache/memcache"

	"github.com/tubedash/tubedash/internal/memcacheiface"
	"github.com/tubedash/tubedash/types"
)

// Cache stores cached metadata in Memcached under a key prefix.
type Cache struct {
	client    memcacheiface.Client
	keyPrefix string
}

// New creates a Memcached-backed cache. The client is usually a
// *memcache.Client; tests pass a mock.
func New(client memcacheiface.Client, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *Cache) memcacheKey(key string) string {
	return c.keyPrefix + ":" + key
}

// Get returns the cached value, or types.ErrCacheMiss when absent. Expiry is
// handled by Memcached item TTLs.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	it, err := c.client.Get(c.memcacheKey(key))
	if err == gomemcache.ErrCacheMiss {
		return nil, types.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("memcache get %q: %w", key, err)
	}
	return it.Value, nil
}

// Set stores value under key. Memcached expirations are whole seconds, so a
// sub-second ttl is rounded up to one second; a ttl of zero stores the value
// without expiry.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	expiry := int32(ttl / time.Second)
	if ttl > 0 && expiry < 1 {
		expiry = 1
	}
	item := &gomemcache.Item{
		Key:        c.memcacheKey(key),
		Value:      value,
		Expiration: expiry,
	}
	if err := c.client.Set(item); err != nil {
		return fmt.Errorf("memcache set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	err := c.client.Delete(c.memcacheKey(key))
	if err != nil && err != gomemcache.ErrCacheMiss {
		return fmt.Errorf("memcache delete %q: %w", key, err)
	}
	return nil
}

var _ types.Cache = (*Cache)(nil)
