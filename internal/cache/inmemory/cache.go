// Package inmemory provides the in-process metadata cache backend. It is the
// default backend and needs no external services.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/types"
)

// DefaultJanitorInterval is how often expired items are purged. Expired
// items are also dropped lazily on Get, so the janitor only bounds memory.
const DefaultJanitorInterval = time.Minute

type item struct {
	value []byte
	// expiresAt is zero for items stored without a ttl.
	expiresAt time.Time
}

// Cache is a mutex guarded in-process cache with per-item TTLs.
type Cache struct {
	mu    sync.Mutex
	items map[string]item

	now             func() time.Time
	janitorInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets a custom time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithJanitorInterval overrides how often expired items are purged.
func WithJanitorInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.janitorInterval = d
	}
}

// New creates an in-process cache and starts its janitor goroutine. Close
// stops the janitor.
func New(opts ...Option) *Cache {
	c := &Cache{
		items:           make(map[string]item),
		now:             time.Now,
		janitorInterval: DefaultJanitorInterval,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.janitor()
	return c
}

// Get returns the cached value, or types.ErrCacheMiss when the key is absent
// or its ttl has passed.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return nil, types.ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && it.expiresAt.Before(c.now()) {
		delete(c.items, key)
		return nil, types.ErrCacheMiss
	}
	return it.value, nil
}

// Set stores value under key. A ttl of zero stores it without expiry.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Len reports how many items are currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the janitor goroutine. Safe to call more than once.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := c.removeExpired(c.now()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Cache: purged expired items")
			}
		case <-c.done:
			return
		}
	}
}

func (c *Cache) removeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, it := range c.items {
		if !it.expiresAt.IsZero() && it.expiresAt.Before(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

var _ types.Cache = (*Cache)(nil)
