package memcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	memcachecache "github.com/tubedash/tubedash/internal/cache/memcache"
	"github.com/tubedash/tubedash/internal/testharness/memcachetest"
	"github.com/tubedash/tubedash/types"
)

func TestIntegration_Cache_RoundTrip(t *testing.T) {
	client := memcachetest.Setup(t)
	prefix := "tubedash_itest"
	t.Cleanup(func() {
		memcachetest.Cleanup(t, client, prefix+":videos:UC123")
	})

	cache := memcachecache.New(client, prefix)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "videos:UCmissing"); !errors.Is(err, types.ErrCacheMiss) {
		t.Fatalf("Get of missing key: err = %v, want ErrCacheMiss", err)
	}

	if err := cache.Set(ctx, "videos:UC123", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := cache.Get(ctx, "videos:UC123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("Get = %q, want %q", got, "payload")
	}

	if err := cache.Delete(ctx, "videos:UC123"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Get(ctx, "videos:UC123"); !errors.Is(err, types.ErrCacheMiss) {
		t.Fatalf("Get after delete: err = %v, want ErrCacheMiss", err)
	}
}

func TestIntegration_Cache_TTL(t *testing.T) {
	client := memcachetest.Setup(t)
	prefix := "tubedash_itest_ttl"
	t.Cleanup(func() {
		memcachetest.Cleanup(t, client, prefix+":short")
	})

	cache := memcachecache.New(client, prefix)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(2 * time.Second)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, types.ErrCacheMiss) {
		t.Fatalf("Get after expiry: err = %v, want ErrCacheMiss", err)
	}
}
