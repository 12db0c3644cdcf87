package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineWorkers       = "NEWSROLL_PIPELINE_WORKERS"
	EnvPipelineLookbackHours = "NEWSROLL_PIPELINE_LOOKBACK_HOURS"
	EnvPipelineMinConfidence = "NEWSROLL_PIPELINE_MIN_CONFIDENCE"
	EnvPipelineBatchSize     = "NEWSROLL_PIPELINE_BATCH_SIZE"
)

// PipelineConfig holds the per-run tunables for the enrichment and rollup
// stages. Everything here is passed at construction so tests and one-off
// runs can override without touching process-wide state.
type PipelineConfig struct {
	Workers              int         `toml:"workers"`
	LookbackHours        int         `toml:"lookback_hours"`
	MinConfidence        float64     `toml:"min_confidence"`
	MaxArticlesPerSymbol int         `toml:"max_articles_per_symbol"`
	BatchSize            int         `toml:"batch_size"`
	BatchMaxTextChars    int         `toml:"batch_max_text_chars"`
	SymbolBudget         string      `toml:"symbol_budget"`
	SentimentDelta       float64     `toml:"sentiment_delta"`
	MaxHoldings          int         `toml:"max_holdings"`
	MaxRollupItems       int         `toml:"max_rollup_items"`
	Timezone             string      `toml:"timezone"`
	Retry                RetryConfig `toml:"retry"`
}

// RetryConfig parameterizes the backoff policy applied to model-service calls.
type RetryConfig struct {
	BaseDelay   string `toml:"base_delay"`
	MaxDelay    string `toml:"max_delay"`
	MaxAttempts int    `toml:"max_attempts"`
	Jitter      string `toml:"jitter"`
}

// SymbolBudgetDuration returns SymbolBudget as a time.Duration.
func (c *PipelineConfig) SymbolBudgetDuration() time.Duration {
	d, _ := time.ParseDuration(c.SymbolBudget)
	return d
}

// Lookback returns LookbackHours as a time.Duration.
func (c *PipelineConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *RetryConfig) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (c *RetryConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// JitterDuration returns Jitter as a time.Duration.
func (c *RetryConfig) JitterDuration() time.Duration {
	d, _ := time.ParseDuration(c.Jitter)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.LookbackHours != 0 {
		c.LookbackHours = overlay.LookbackHours
	}
	if overlay.MinConfidence != 0 {
		c.MinConfidence = overlay.MinConfidence
	}
	if overlay.MaxArticlesPerSymbol != 0 {
		c.MaxArticlesPerSymbol = overlay.MaxArticlesPerSymbol
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.BatchMaxTextChars != 0 {
		c.BatchMaxTextChars = overlay.BatchMaxTextChars
	}
	if overlay.SymbolBudget != "" {
		c.SymbolBudget = overlay.SymbolBudget
	}
	if overlay.SentimentDelta != 0 {
		c.SentimentDelta = overlay.SentimentDelta
	}
	if overlay.MaxHoldings != 0 {
		c.MaxHoldings = overlay.MaxHoldings
	}
	if overlay.MaxRollupItems != 0 {
		c.MaxRollupItems = overlay.MaxRollupItems
	}
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
	if overlay.Retry.BaseDelay != "" {
		c.Retry.BaseDelay = overlay.Retry.BaseDelay
	}
	if overlay.Retry.MaxDelay != "" {
		c.Retry.MaxDelay = overlay.Retry.MaxDelay
	}
	if overlay.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = overlay.Retry.MaxAttempts
	}
	if overlay.Retry.Jitter != "" {
		c.Retry.Jitter = overlay.Retry.Jitter
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 3
	}
	if c.LookbackHours == 0 {
		c.LookbackHours = 24
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.72
	}
	if c.MaxArticlesPerSymbol == 0 {
		c.MaxArticlesPerSymbol = 8
	}
	if c.BatchSize == 0 {
		c.BatchSize = 5
	}
	if c.BatchMaxTextChars == 0 {
		c.BatchMaxTextChars = 1500
	}
	if c.SymbolBudget == "" {
		c.SymbolBudget = "30s"
	}
	if c.SentimentDelta == 0 {
		c.SentimentDelta = 5
	}
	if c.MaxHoldings == 0 {
		c.MaxHoldings = 6
	}
	if c.MaxRollupItems == 0 {
		c.MaxRollupItems = 14
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.Retry.BaseDelay == "" {
		c.Retry.BaseDelay = "8s"
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = "20s"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 8
	}
	if c.Retry.Jitter == "" {
		c.Retry.Jitter = "1s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPipelineLookbackHours); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LookbackHours = n
		}
	}
	if v := os.Getenv(EnvPipelineMinConfidence); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinConfidence = f
		}
	}
	if v := os.Getenv(EnvPipelineBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0, 1]")
	}
	if _, err := time.ParseDuration(c.SymbolBudget); err != nil {
		return fmt.Errorf("invalid symbol_budget: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := time.ParseDuration(c.Retry.BaseDelay); err != nil {
		return fmt.Errorf("invalid retry.base_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.Retry.MaxDelay); err != nil {
		return fmt.Errorf("invalid retry.max_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.Retry.Jitter); err != nil {
		return fmt.Errorf("invalid retry.jitter: %w", err)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	return nil
}
