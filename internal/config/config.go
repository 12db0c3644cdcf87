// Package config loads the newsroll configuration from config.toml, an
// optional environment overlay, and environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/newsroll/pkg/database"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvNewsrollEnv     = "NEWSROLL_ENV"
	EnvNewsrollVersion = "NEWSROLL_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "NEWSROLL_DB_HOST",
	Port:            "NEWSROLL_DB_PORT",
	Name:            "NEWSROLL_DB_NAME",
	User:            "NEWSROLL_DB_USER",
	Password:        "NEWSROLL_DB_PASSWORD",
	SSLMode:         "NEWSROLL_DB_SSL_MODE",
	MaxOpenConns:    "NEWSROLL_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "NEWSROLL_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "NEWSROLL_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "NEWSROLL_DB_CONN_TIMEOUT",
}

// Config is the root configuration for the newsroll pipeline.
type Config struct {
	Database  database.Config `toml:"database"`
	Model     ModelConfig     `toml:"model"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Reference ReferenceConfig `toml:"reference"`
	Version   string          `toml:"version"`
}

// Env returns the NEWSROLL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvNewsrollEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Database.Merge(&overlay.Database)
	c.Model.Merge(&overlay.Model)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Reference.Merge(&overlay.Reference)
}

func (c *Config) finalize() error {
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvNewsrollVersion); v != "" {
		c.Version = v
	}

	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Model.Finalize(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Reference.Finalize(); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvNewsrollEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
