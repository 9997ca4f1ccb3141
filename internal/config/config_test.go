package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "assess.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 5, cfg.Matching.RatePerSec, 0.001)
	assert.Equal(t, 15, cfg.Matching.TimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/assess
matching:
  base_url: https://match.example.com
  key: secret
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/assess", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://match.example.com", cfg.Matching.BaseURL)
	assert.Equal(t, "secret", cfg.Matching.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
		assert.NotNil(t, zap.L())
	})

	t.Run("bad level", func(t *testing.T) {
		assert.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
	})
}
