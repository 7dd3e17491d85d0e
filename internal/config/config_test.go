package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixo-intel/competitor-watch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
env: local
storage:
  database_path: data/test.db
  reports_dir: data/reports
  max_snapshots_per_entity: 30
scraping:
  request_timeout: 10s
  delay_between_requests: 1s
  max_retries: 2
entities:
  - id: acme
    name: ACME Services
    pages:
      home: https://acme.example
      pricing: https://acme.example/pricing
    selectors:
      services: ".service-card h3"
      price_rows: ".pricing-table tr"
  - id: globex
    pages:
      home: https://globex.example
`

func TestLoad(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := writeConfig(t, validConfig)

		cfg, err := config.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Env)
		assert.Equal(t, 30, cfg.Storage.MaxPerEntity)
		assert.Equal(t, 10*time.Second, cfg.Scraping.Timeout)
		assert.Equal(t, 2, cfg.Scraping.MaxRetries)
		assert.Equal(t, []string{"acme", "globex"}, cfg.EntityIDs())

		acme, ok := cfg.Entity("acme")
		require.True(t, ok)
		assert.Equal(t, "https://acme.example/pricing", acme.Pages["pricing"])
		assert.Equal(t, ".service-card h3", acme.Selectors.Services)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfig(t, `
entities:
  - id: acme
    pages:
      home: https://acme.example
`)

		cfg, err := config.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Env)
		assert.Equal(t, 90, cfg.Storage.MaxPerEntity)
		assert.Equal(t, 30*time.Second, cfg.Scraping.Timeout)
		assert.Equal(t, 3, cfg.Scraping.MaxRetries)
		assert.Equal(t, 12*time.Hour, cfg.Interval)
	})

	t.Run("error - missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("error - no entities", func(t *testing.T) {
		path := writeConfig(t, `env: local`)

		_, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrNoEntities)
	})

	t.Run("error - entity without id", func(t *testing.T) {
		path := writeConfig(t, `
entities:
  - name: nameless
    pages:
      home: https://x.example
`)

		_, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrEntityNoID)
	})

	t.Run("error - entity without pages", func(t *testing.T) {
		path := writeConfig(t, `
entities:
  - id: acme
`)

		_, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrEntityNoPages)
	})

	t.Run("error - bad retention", func(t *testing.T) {
		path := writeConfig(t, `
storage:
  max_snapshots_per_entity: 0
entities:
  - id: acme
    pages:
      home: https://acme.example
`)

		_, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrBadRetention)
	})
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	path := writeConfig(t, `env: local`)

	assert.Panics(t, func() {
		config.MustLoad(path)
	})
}
