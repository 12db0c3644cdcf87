// Package pipeline implements the three-stage enrichment and rollup run:
// per-symbol article enrichment, per-symbol daily narratives, and per-ETF
// cross-holding narratives, with a full-flush barrier between stages.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/internal/config"
	"github.com/JaimeStill/newsroll/internal/model"
	"github.com/JaimeStill/newsroll/internal/reference"
	"github.com/JaimeStill/newsroll/internal/snapshots"
	"github.com/JaimeStill/newsroll/pkg/retry"
)

// Runtime bundles the dependencies the pipeline stages require.
// It is constructed by the entry point from config and storage systems.
type Runtime struct {
	Articles  articles.System
	Snapshots snapshots.System
	Provider  model.Provider
	Universe  *reference.Universe
	Holdings  *reference.Index
	Config    config.PipelineConfig
	Model     config.ModelConfig
	Logger    *slog.Logger

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}

// asOfDate returns today's exchange-local calendar date, the natural key
// that scopes all rollups in a run.
func (rt *Runtime) asOfDate() string {
	loc, err := time.LoadLocation(rt.Config.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return rt.now().In(loc).Format("2006-01-02")
}

func (rt *Runtime) retryPolicy() retry.Policy {
	r := rt.Config.Retry
	return retry.Policy{
		Base:      r.BaseDelayDuration(),
		Max:       r.MaxDelayDuration(),
		Attempts:  r.MaxAttempts,
		Jitter:    r.JitterDuration(),
		Retryable: model.Transient,
	}
}

// generate issues one model-service call under the retry policy. Backoff on
// rate-limit signals is the sole admission control against the service.
func (rt *Runtime) generate(ctx context.Context, instruction string, payload any) (string, error) {
	return retry.Do(ctx, rt.retryPolicy(), func() (string, error) {
		return rt.Provider.Generate(ctx, model.Request{
			Instruction: instruction,
			Payload:     payload,
			Temperature: rt.Model.Temperature,
			MaxTokens:   rt.Model.MaxTokens,
		})
	})
}
