// Package types defines common types and interfaces shared across the service.
package types

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by Cache.Get when no value is stored for the key.
// Backends normalize their own miss sentinels to this one.
var ErrCacheMiss = errors.New("cache: miss")

// Cache is the interface all metadata cache backends implement. Values are
// opaque bytes; a ttl of zero stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BackendClients holds initialized backend client instances.
type BackendClients struct {
	// RedisClient is the Redis client instance.
	RedisClient *redis.Client
	// MemcacheClient is the Memcached client instance.
	MemcacheClient *memcache.Client
}
