// Package memcachetest provides helpers for integration tests that need a
// real Memcached server. Tests are skipped unless MEMCACHED_ADDR is set or
// CI is "true".
package memcachetest

import (
	"os"
	"testing"

	"github.com/bradfitz/gomemcache/memcache"
)

// Address returns the Memcached address for integration tests, skipping the
// test when none is configured.
func Address(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv("MEMCACHED_ADDR"); addr != "" {
		return addr
	}
	if os.Getenv("CI") == "true" {
		return "memcached:11211"
	}
	t.Skip("MEMCACHED_ADDR not set; skipping Memcached integration test")
	return ""
}

// Setup connects to Memcached and fails the test if it is unreachable.
func Setup(t *testing.T) *memcache.Client {
	t.Helper()
	addr := Address(t)

	mc := memcache.New(addr)
	if err := mc.Ping(); err != nil {
		t.Fatalf("Failed to connect to Memcached at %s: %v. Ensure Memcached is running and accessible.", addr, err)
	}
	return mc
}

// Cleanup deletes the given keys. Best effort; a miss or failure is logged,
// not fatal.
func Cleanup(t *testing.T, client *memcache.Client, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if err := client.Delete(key); err != nil && err != memcache.ErrCacheMiss {
			t.Logf("Cleanup: failed to delete %q: %v", key, err)
		}
	}
}
