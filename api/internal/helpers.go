package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/tubedash/tubedash/config"
)

// LoadConfig reads the YAML file at path on top of the built-in defaults,
// applies environment overrides for secrets, and validates the result.
func LoadConfig(path string) (*config.Config, error) {
	log.Info().Str("config_path", path).Msg("Loading configuration")

	cfg := config.Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config file %s: %w", path, err)
	}

	// API keys are secrets; the environment wins over the file so the file
	// can be committed without them.
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		cfg.YouTube.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config file %s: %w", path, err)
	}
	log.Info().Str("config_path", path).Msg("Configuration loaded successfully")
	return cfg, nil
}

// InitRedisClient initializes and pings a Redis client for the cache backend.
func InitRedisClient(params *config.RedisBackendConfig) (*redis.Client, error) {
	if params == nil {
		return nil, fmt.Errorf("redis backend selected but redis_params are missing in config")
	}
	log.Info().Str("address", params.Address).Int("db", params.DB).Msg("Initializing Redis client")

	client := redis.NewClient(&redis.Options{
		Addr:     params.Address,
		Password: params.Password,
		DB:       params.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", params.Address, err)
	}
	log.Info().Str("address", params.Address).Msg("Connected to Redis")
	return client, nil
}

// InitMemcacheClient initializes and pings a Memcached client for the cache
// backend.
func InitMemcacheClient(params *config.MemcacheBackendConfig) (*memcache.Client, error) {
	if params == nil || len(params.Addresses) == 0 {
		return nil, fmt.Errorf("memcache backend selected but memcache_params are missing in config")
	}
	log.Info().Strs("addresses", params.Addresses).Msg("Initializing Memcached client")

	client := memcache.New(params.Addresses...)
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Memcached at %v: %w", params.Addresses, err)
	}
	log.Info().Strs("addresses", params.Addresses).Msg("Connected to Memcached")
	return client, nil
}
