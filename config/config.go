// Package config loads the engine configuration from YAML with sensible
// defaults for every setting, so a zero-value file (or no file at all) yields
// a working engine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "60m" or "300s" parse
// naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DispatchConfig bounds the agent-to-agent dispatch loop.
type DispatchConfig struct {
	MaxHops             int      `yaml:"max_hops"`
	MaxCoordinatorCalls int      `yaml:"max_coordinator_calls"`
	MaxCriticReturns    int      `yaml:"max_critic_returns"`
	InvocationTimeout   Duration `yaml:"invocation_timeout"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL Duration `yaml:"ttl"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Capacity int      `yaml:"capacity"`
	TTL      Duration `yaml:"ttl"`
}

// DataConfig names the user data and reference data directories.
type DataConfig struct {
	UserDir      string `yaml:"user_dir"`
	ReferenceDir string `yaml:"reference_dir"`
	Watch        bool   `yaml:"watch"`
}

// ModelConfig selects and tunes the reasoning service.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, scripted
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Config is the full engine configuration.
type Config struct {
	Dispatch DispatchConfig `yaml:"dispatch"`
	Session  SessionConfig  `yaml:"session"`
	Cache    CacheConfig    `yaml:"cache"`
	Data     DataConfig     `yaml:"data"`
	Model    ModelConfig    `yaml:"model"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Dispatch: DispatchConfig{
			MaxHops:             15,
			MaxCoordinatorCalls: 3,
			MaxCriticReturns:    1,
		},
		Session: SessionConfig{TTL: Duration(60 * time.Minute)},
		Cache:   CacheConfig{Capacity: 1000, TTL: Duration(5 * time.Minute)},
		Data: DataConfig{
			UserDir:      "data/user",
			ReferenceDir: "data/reference",
			Watch:        true,
		},
		Model: ModelConfig{
			Provider:    "openai",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Dispatch.MaxHops <= 0 {
		return fmt.Errorf("dispatch.max_hops must be positive, got %d", c.Dispatch.MaxHops)
	}
	if c.Dispatch.MaxCoordinatorCalls <= 0 {
		return fmt.Errorf("dispatch.max_coordinator_calls must be positive, got %d", c.Dispatch.MaxCoordinatorCalls)
	}
	if c.Dispatch.MaxCriticReturns < 0 {
		return fmt.Errorf("dispatch.max_critic_returns must not be negative, got %d", c.Dispatch.MaxCriticReturns)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "scripted":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	return nil
}
