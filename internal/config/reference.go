package config

import (
	"fmt"
	"os"
)

const (
	EnvReferenceTickersPath = "NEWSROLL_REFERENCE_TICKERS_PATH"
	EnvReferenceFundsPath   = "NEWSROLL_REFERENCE_FUNDS_PATH"
)

// ReferenceConfig locates the static reference datasets.
type ReferenceConfig struct {
	TickersPath string `toml:"tickers_path"`
	FundsPath   string `toml:"funds_path"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReferenceConfig) Finalize() error {
	if c.TickersPath == "" {
		c.TickersPath = "data/tickers.json"
	}
	if c.FundsPath == "" {
		c.FundsPath = "data/funds.json"
	}

	if v := os.Getenv(EnvReferenceTickersPath); v != "" {
		c.TickersPath = v
	}
	if v := os.Getenv(EnvReferenceFundsPath); v != "" {
		c.FundsPath = v
	}

	if c.TickersPath == "" || c.FundsPath == "" {
		return fmt.Errorf("tickers_path and funds_path required")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ReferenceConfig) Merge(overlay *ReferenceConfig) {
	if overlay.TickersPath != "" {
		c.TickersPath = overlay.TickersPath
	}
	if overlay.FundsPath != "" {
		c.FundsPath = overlay.FundsPath
	}
}
