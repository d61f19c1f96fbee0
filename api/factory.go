package api

import (
	"fmt"

	apiinternal "github.com/tubedash/tubedash/api/internal"
	"github.com/tubedash/tubedash/config"
	inmemorycache "github.com/tubedash/tubedash/internal/cache/inmemory"
	memcachecache "github.com/tubedash/tubedash/internal/cache/memcache"
	rediscache "github.com/tubedash/tubedash/internal/cache/redis"
	"github.com/tubedash/tubedash/types"
)

const cacheKeyPrefix = "tubedash"

// buildCache creates the metadata cache for the configured backend and
// returns any backend clients it opened so the caller can close them.
func buildCache(cfg config.CacheConfig) (types.Cache, types.BackendClients, error) {
	clients := types.BackendClients{}

	switch cfg.Backend {
	case config.InMemory:
		// In-memory doesn't need external clients.
		return inmemorycache.New(), clients, nil

	case config.Redis:
		client, err := apiinternal.InitRedisClient(cfg.RedisParams)
		if err != nil {
			return nil, clients, err
		}
		clients.RedisClient = client
		return rediscache.New(client, cacheKeyPrefix), clients, nil

	case config.Memcache:
		client, err := apiinternal.InitMemcacheClient(cfg.MemcacheParams)
		if err != nil {
			return nil, clients, err
		}
		clients.MemcacheClient = client
		return memcachecache.New(client, cacheKeyPrefix), clients, nil

	default:
		return nil, clients, fmt.Errorf("cache: unsupported backend type %q", cfg.Backend)
	}
}
