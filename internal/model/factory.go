package model

import (
	"context"
	"fmt"

	"github.com/JaimeStill/newsroll/internal/config"
)

// New builds the configured Provider.
func New(ctx context.Context, cfg *config.ModelConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("api key required for gemini provider")
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Name)
	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("api key required for claude provider")
		}
		return NewClaude(cfg.APIKey, cfg.Name), nil
	case "scripted":
		return NewScripted(`{"status":"scripted provider, configure gemini or claude"}`), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
