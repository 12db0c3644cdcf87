package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvModelProvider  = "NEWSROLL_MODEL_PROVIDER"
	EnvModelAPIKey    = "NEWSROLL_MODEL_API_KEY"
	EnvModelName      = "NEWSROLL_MODEL_NAME"
	EnvModelMaxTokens = "NEWSROLL_MODEL_MAX_TOKENS"
)

// ModelConfig selects and configures the model-service provider.
type ModelConfig struct {
	Provider    string  `toml:"provider"`
	APIKey      string  `toml:"api_key"`
	Name        string  `toml:"name"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ModelConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
}

func (c *ModelConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if c.Name == "" {
		switch c.Provider {
		case "claude":
			c.Name = "claude-haiku-4-5"
		default:
			c.Name = "gemini-2.5-flash-lite"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
}

func (c *ModelConfig) loadEnv() {
	if v := os.Getenv(EnvModelProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvModelAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvModelName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvModelMaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
}

func (c *ModelConfig) validate() error {
	switch c.Provider {
	case "gemini", "claude", "scripted":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]")
	}
	return nil
}
