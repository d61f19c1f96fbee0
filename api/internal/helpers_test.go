package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tubedash/tubedash/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	// Sections absent from the file keep their defaults.
	require.Equal(t, config.InMemory, cfg.Cache.Backend)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.Len(t, cfg.Limiters, 3)
}

func TestLoadConfigParsesDurations(t *testing.T) {
	path := writeConfig(t, `
cache:
  backend: in_memory
  ttl: 30s
limiters:
  - key: general
    window: 60s
    limit: 100
  - key: webhook
    window: 60s
    limit: 30
  - key: strict
    window: 1m
    limit: 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Cache.TTL)
	require.Equal(t, time.Minute, cfg.Limiters[2].Window)
	require.Equal(t, 10, cfg.Limiters[2].Limit)
}

func TestLoadConfigEnvOverridesKeys(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "env-yt")
	t.Setenv("GEMINI_API_KEY", "env-gm")
	path := writeConfig(t, "youtube:\n  api_key: file-yt\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "env-yt", cfg.YouTube.APIKey)
	require.Equal(t, "env-gm", cfg.Gemini.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsIncompleteTiers(t *testing.T) {
	path := writeConfig(t, `
limiters:
  - key: general
    window: 60s
    limit: 100
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "webhook")
}
