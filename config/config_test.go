package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15, cfg.Dispatch.MaxHops)
	assert.Equal(t, 3, cfg.Dispatch.MaxCoordinatorCalls)
	assert.Equal(t, 1, cfg.Dispatch.MaxCriticReturns)
	assert.Equal(t, 60*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, "openai", cfg.Model.Provider)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
dispatch:
  max_hops: 10
  invocation_timeout: 45s
session:
  ttl: 30m
cache:
  ttl: 120s
model:
  provider: anthropic
  name: claude-3-5-sonnet-20241022
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Dispatch.MaxHops)
	assert.Equal(t, 45*time.Second, cfg.Dispatch.InvocationTimeout.Std())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 120*time.Second, cfg.Cache.TTL.Std())
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched settings keep their defaults.
	assert.Equal(t, 3, cfg.Dispatch.MaxCoordinatorCalls)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: sixty\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero hops", func(c *Config) { c.Dispatch.MaxHops = 0 }},
		{"zero coordinator calls", func(c *Config) { c.Dispatch.MaxCoordinatorCalls = 0 }},
		{"negative critic returns", func(c *Config) { c.Dispatch.MaxCriticReturns = -1 }},
		{"zero cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"unknown provider", func(c *Config) { c.Model.Provider = "llamapile" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	v, err := Duration(90 * time.Second).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", v)
}
