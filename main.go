// Package main is the entry point for the dashboard server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/api"
	"github.com/tubedash/tubedash/internal/server"
)

// main parses flags, loads configuration, assembles the components, and
// runs the HTTP server until a shutdown signal arrives.
func main() {
	// Configure zerolog for console output
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	port := flag.Int("p", 0, "Port to run the HTTP server on (0 uses the configured port)")
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	logLevelStr := flag.String("log-level", "info", "Logging level (trace, debug, info, warn, error, fatal, panic)")
	flag.Parse()

	logLevel, err := zerolog.ParseLevel(*logLevelStr)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", *logLevelStr).Msg("Invalid log level provided")
	}
	zerolog.SetGlobalLevel(logLevel)

	log.Info().Str("config_path", *configPath).Msg("Starting application initialization")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := api.NewComponentsFromConfigPath(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config_path", *configPath).Msg("Application startup failed: Error initializing components")
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Error().Err(err).Msg("Component shutdown reported errors")
		}
	}()

	cfg := *components.Config
	if *port != 0 {
		cfg.Server.Port = *port
	}

	srv, err := server.New(cfg, server.Deps{
		Store:    components.Store,
		Cache:    components.Cache,
		CacheTTL: cfg.Cache.TTL,
		YouTube:  components.YouTube,
		Gemini:   components.Gemini,
		Notifier: components.Notifier,
		Limiters: components.Limiters,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Application startup failed: Error building HTTP server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
