package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	return cfg
}

func TestDefaultIsValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestDefaultLimiterTiers(t *testing.T) {
	limiters := DefaultLimiters()
	want := map[string]struct {
		window time.Duration
		limit  int
	}{
		GeneralLimiter: {time.Minute, 100},
		WebhookLimiter: {time.Minute, 30},
		StrictLimiter:  {time.Minute, 10},
	}

	if len(limiters) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(limiters))
	}
	for _, lc := range limiters {
		expected, ok := want[lc.Key]
		if !ok {
			t.Fatalf("unexpected tier %q", lc.Key)
		}
		if lc.Window != expected.window {
			t.Errorf("tier %q: expected window %v, got %v", lc.Key, expected.window, lc.Window)
		}
		if lc.Limit != expected.limit {
			t.Errorf("tier %q: expected limit %d, got %d", lc.Key, expected.limit, lc.Limit)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "InvalidPort",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid port",
		},
		{
			name:    "EmptyStorePath",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "path",
		},
		{
			name:    "UnknownCacheBackend",
			mutate:  func(c *Config) { c.Cache.Backend = "etcd" },
			wantErr: "unsupported backend",
		},
		{
			name:    "RedisWithoutParams",
			mutate:  func(c *Config) { c.Cache.Backend = Redis },
			wantErr: "redis_params",
		},
		{
			name:    "MemcacheWithoutParams",
			mutate:  func(c *Config) { c.Cache.Backend = Memcache },
			wantErr: "memcache_params",
		},
		{
			name:    "NoLimiters",
			mutate:  func(c *Config) { c.Limiters = nil },
			wantErr: "at least one limiter",
		},
		{
			name: "MissingLimiterKey",
			mutate: func(c *Config) {
				c.Limiters = append(c.Limiters, LimiterConfig{Window: time.Minute, Limit: 5})
			},
			wantErr: "missing 'key'",
		},
		{
			name: "DuplicateLimiterKey",
			mutate: func(c *Config) {
				c.Limiters = append(c.Limiters, LimiterConfig{Key: GeneralLimiter, Window: time.Minute, Limit: 5})
			},
			wantErr: "duplicate",
		},
		{
			name: "ZeroWindow",
			mutate: func(c *Config) {
				c.Limiters[0].Window = 0
			},
			wantErr: "window must be positive",
		},
		{
			name: "NegativeLimit",
			mutate: func(c *Config) {
				c.Limiters[0].Limit = -3
			},
			wantErr: "limit must be positive",
		},
		{
			name: "MissingRequiredTier",
			mutate: func(c *Config) {
				c.Limiters = []LimiterConfig{
					{Key: GeneralLimiter, Window: time.Minute, Limit: 100},
					{Key: StrictLimiter, Window: time.Minute, Limit: 10},
				}
			},
			wantErr: "required limiter",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateRedisBackendWithParams(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = Redis
	cfg.Cache.RedisParams = &RedisBackendConfig{Address: "localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid redis config, got %v", err)
	}
}
