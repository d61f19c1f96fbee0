package memcacheiface

import "github.com/bradfitz/gomemcache/memcache"

// Client defines the interface for Memcached client operations needed by the
// cache backend. This allows for mocking the Memcached client in unit tests.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// The real client satisfies the interface as is.
var _ Client = (*memcache.Client)(nil)
