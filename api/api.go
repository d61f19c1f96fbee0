// Package api assembles the application components from configuration:
// rate limiters, the metadata cache, the persistent store, and the
// outbound API clients.
package api

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	apiinternal "github.com/tubedash/tubedash/api/internal"
	"github.com/tubedash/tubedash/config"
	"github.com/tubedash/tubedash/internal/gemini"
	"github.com/tubedash/tubedash/internal/ratelimit"
	"github.com/tubedash/tubedash/internal/store"
	"github.com/tubedash/tubedash/internal/webhook"
	"github.com/tubedash/tubedash/internal/youtube"
	"github.com/tubedash/tubedash/types"
)

// Components holds every wired dependency of the application. Close
// releases them in reverse dependency order.
type Components struct {
	Config   *config.Config
	Limiters map[string]*ratelimit.Limiter
	Cache    types.Cache
	Store    *store.Store
	YouTube  *youtube.Client
	Gemini   *gemini.Client
	Notifier *webhook.Notifier

	clients types.BackendClients
}

// NewComponentsFromConfigPath loads configuration and initializes all
// application components. On error, anything already initialized is closed.
func NewComponentsFromConfigPath(ctx context.Context, configPath string) (*Components, error) {
	log.Info().Str("config_path", configPath).Msg("API: Initializing components")

	cfg, err := apiinternal.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	c := &Components{
		Config:   cfg,
		Limiters: make(map[string]*ratelimit.Limiter, len(cfg.Limiters)),
	}

	for _, lc := range cfg.Limiters {
		limiter, err := ratelimit.New(lc.Key, lc.Window, lc.Limit)
		if err != nil {
			c.closeQuietly()
			return nil, fmt.Errorf("limiter %q: %w", lc.Key, err)
		}
		c.Limiters[lc.Key] = limiter
	}
	log.Info().Int("count", len(c.Limiters)).Msg("API: Rate limiters created")

	cache, clients, err := buildCache(cfg.Cache)
	if err != nil {
		c.closeQuietly()
		return nil, err
	}
	c.Cache = cache
	c.clients = clients

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		c.closeQuietly()
		return nil, err
	}
	c.Store = st
	if err := st.Migrate(ctx); err != nil {
		c.closeQuietly()
		return nil, err
	}

	ytOpts := []youtube.Option{youtube.WithRequestsPerSecond(cfg.YouTube.RequestsPerSecond)}
	if cfg.YouTube.BaseURL != "" {
		ytOpts = append(ytOpts, youtube.WithBaseURL(cfg.YouTube.BaseURL))
	}
	yt, err := youtube.NewClient(cfg.YouTube.APIKey, ytOpts...)
	if err != nil {
		c.closeQuietly()
		return nil, err
	}
	c.YouTube = yt

	gmOpts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model)}
	if cfg.Gemini.BaseURL != "" {
		gmOpts = append(gmOpts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
	}
	gm, err := gemini.NewClient(cfg.Gemini.APIKey, gmOpts...)
	if err != nil {
		c.closeQuietly()
		return nil, err
	}
	c.Gemini = gm

	c.Notifier = webhook.NewNotifier(cfg.Webhook.AnalysisURL, cfg.Webhook.Timeout)
	if c.Notifier.Enabled() {
		log.Info().Str("url", cfg.Webhook.AnalysisURL).Msg("API: Webhook notifications enabled")
	} else {
		log.Info().Msg("API: Webhook notifications disabled (no analysis_url configured)")
	}

	log.Info().Msg("API: All components initialized")
	return c, nil
}

// Close shuts down limiters, backend clients, and the store.
func (c *Components) Close() error {
	log.Info().Msg("API: Starting component shutdown")
	var errs []error

	for key, limiter := range c.Limiters {
		if err := limiter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close limiter %q: %w", key, err))
		}
	}

	if closer, ok := c.Cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}

	if c.clients.RedisClient != nil {
		if err := c.clients.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis client: %w", err))
		}
	}
	// The Memcached client has no close; its connections are pooled and
	// reaped by the library.

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during component shutdown: %v", errs)
	}
	log.Info().Msg("API: Component shutdown complete")
	return nil
}

func (c *Components) closeQuietly() {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg("API: Cleanup after failed initialization reported errors")
	}
}
