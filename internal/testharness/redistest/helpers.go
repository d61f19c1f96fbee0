// Package redistest provides helpers for integration tests that need a real
// Redis server. Tests are skipped unless REDIS_ADDR is set or CI is "true".
package redistest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// Address returns the Redis address for integration tests, skipping the test
// when none is configured.
func Address(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	if os.Getenv("CI") == "true" {
		return "redis:6379"
	}
	t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	return ""
}

// Setup connects to Redis and fails the test if it is unreachable. The
// client is closed when the test finishes.
func Setup(t *testing.T) *redis.Client {
	t.Helper()
	addr := Address(t)

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Fatalf("Failed to connect to Redis at %s: %v. Ensure Redis is running and accessible.", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// Cleanup deletes every key under prefix. Best effort; failures are logged,
// not fatal.
func Cleanup(t *testing.T, client *redis.Client, prefix string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+":*", 50).Result()
		if err != nil {
			t.Logf("Cleanup: SCAN %s:* failed: %v", prefix, err)
			return
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				t.Logf("Cleanup: DEL failed: %v", err)
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
