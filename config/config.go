package config

import (
	"fmt"
	"time"
)

// BackendType represents the metadata cache storage backend.
type BackendType string

const (
	InMemory BackendType = "in_memory"
	Redis    BackendType = "redis"
	Memcache BackendType = "memcache"
)

// Names of the rate limiter tiers the HTTP layer expects. The window and
// limit values for each tier are policy, set in DefaultLimiters.
const (
	GeneralLimiter = "general"
	WebhookLimiter = "webhook"
	StrictLimiter  = "strict"
)

// Config is the top-level structure of the configuration file.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Store    StoreConfig     `yaml:"store"`
	Cache    CacheConfig     `yaml:"cache"`
	YouTube  YouTubeConfig   `yaml:"youtube"`
	Gemini   GeminiConfig    `yaml:"gemini"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Limiters []LimiterConfig `yaml:"limiters"`
}

// ServerConfig holds the HTTP server parameters.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig holds the persistent store parameters.
type StoreConfig struct {
	// Path is the local database file.
	Path string `yaml:"path"`
}

// CacheConfig holds the metadata cache parameters.
type CacheConfig struct {
	Backend BackendType   `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`

	RedisParams    *RedisBackendConfig    `yaml:"redis_params,omitempty"`
	MemcacheParams *MemcacheBackendConfig `yaml:"memcache_params,omitempty"`
}

// RedisBackendConfig holds parameters for the Redis cache backend.
type RedisBackendConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// MemcacheBackendConfig holds parameters for the Memcached cache backend.
type MemcacheBackendConfig struct {
	Addresses []string `yaml:"addresses"`
}

// YouTubeConfig holds parameters for the YouTube Data API client.
// APIKey may be left empty in the file and supplied via YOUTUBE_API_KEY.
type YouTubeConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxVideosPerFetch int     `yaml:"max_videos_per_fetch"`
}

// GeminiConfig holds parameters for the Gemini analysis client.
// APIKey may be left empty in the file and supplied via GEMINI_API_KEY.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// WebhookConfig holds parameters for the n8n webhook notifier. An empty
// AnalysisURL disables outbound notifications.
type WebhookConfig struct {
	AnalysisURL string        `yaml:"analysis_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LimiterConfig holds the configuration for a single rate limiter instance.
type LimiterConfig struct {
	Key    string        `yaml:"key"`
	Window time.Duration `yaml:"window"`
	Limit  int           `yaml:"limit"`
}

// DefaultLimiters returns the built-in limiter tiers, used when the config
// file does not declare a limiters section.
func DefaultLimiters() []LimiterConfig {
	return []LimiterConfig{
		{Key: GeneralLimiter, Window: time.Minute, Limit: 100},
		{Key: WebhookLimiter, Window: time.Minute, Limit: 30},
		{Key: StrictLimiter, Window: time.Minute, Limit: 10},
	}
}

// Default returns a Config with every field the rest of the code relies on
// populated. Values from the config file are applied on top of it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: "tubedash.db",
		},
		Cache: CacheConfig{
			Backend: InMemory,
			TTL:     10 * time.Minute,
		},
		YouTube: YouTubeConfig{
			RequestsPerSecond: 8,
			MaxVideosPerFetch: 25,
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Limiters: DefaultLimiters(),
	}
}

// Validate reports the first configuration error it finds. Limiter
// misconfiguration is fatal here rather than discovered per-request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store: path must not be empty")
	}
	switch c.Cache.Backend {
	case InMemory:
	case Redis:
		if c.Cache.RedisParams == nil || c.Cache.RedisParams.Address == "" {
			return fmt.Errorf("cache: redis backend selected but redis_params.address missing")
		}
	case Memcache:
		if c.Cache.MemcacheParams == nil || len(c.Cache.MemcacheParams.Addresses) == 0 {
			return fmt.Errorf("cache: memcache backend selected but memcache_params.addresses missing")
		}
	default:
		return fmt.Errorf("cache: unsupported backend %q", c.Cache.Backend)
	}
	if len(c.Limiters) == 0 {
		return fmt.Errorf("limiters: at least one limiter must be configured")
	}
	seen := make(map[string]bool, len(c.Limiters))
	for _, lc := range c.Limiters {
		if lc.Key == "" {
			return fmt.Errorf("limiters: limiter configuration missing 'key' field")
		}
		if seen[lc.Key] {
			return fmt.Errorf("limiters: duplicate limiter key %q", lc.Key)
		}
		seen[lc.Key] = true
		if lc.Window <= 0 {
			return fmt.Errorf("limiter %q: window must be positive, got %v", lc.Key, lc.Window)
		}
		if lc.Limit <= 0 {
			return fmt.Errorf("limiter %q: limit must be positive, got %d", lc.Key, lc.Limit)
		}
	}
	for _, name := range []string{GeneralLimiter, WebhookLimiter, StrictLimiter} {
		if !seen[name] {
			return fmt.Errorf("limiters: required limiter %q not configured", name)
		}
	}
	return nil
}
