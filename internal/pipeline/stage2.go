package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/internal/snapshots"
	"github.com/JaimeStill/newsroll/pkg/formatting"
)

const (
	// symbolFetchLimit bounds the summaries pulled for one symbol rollup;
	// symbolItemCap is how many of those are forwarded to the model.
	symbolFetchLimit = 50
	symbolItemCap    = 20
)

// rollupItem is the compact article shape sent to the model for rollups.
// Symbol is only populated for cross-symbol (ETF) rollups.
type rollupItem struct {
	Symbol    string   `json:"symbol,omitempty"`
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Sentiment int      `json:"sentiment"`
	HoursAgo  float64  `json:"hours_ago"`
}

// rollupSymbol produces the daily narrative for one symbol, or nil when the
// existing snapshot is fresh or the generated narrative fails validation.
func rollupSymbol(ctx context.Context, rt *Runtime, symbol, asof string, force bool) (*snapshots.Snapshot, error) {
	if !force {
		needs, err := rt.Snapshots.NeedsRollup(ctx, symbol, asof)
		if err != nil {
			return nil, fmt.Errorf("freshness check: %w", err)
		}
		if !needs {
			return nil, nil
		}
	}

	items, err := rt.windowedSummaries(ctx, []string{symbol}, symbolFetchLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	raw, err := rt.generate(ctx, symbolRollupInstruction(symbol), compactItems(rt, items, symbolItemCap, false))
	if err != nil {
		return nil, fmt.Errorf("symbol rollup: %w", err)
	}
	narrative := formatting.StripFences(raw)
	if !validNarrative(narrative) {
		rt.Logger.Warn("rejected symbol narrative", "symbol", symbol, "length", len(narrative))
		return nil, nil
	}
	return &snapshots.Snapshot{
		Symbol:    symbol,
		AsOfDate:  asof,
		Narrative: narrative,
		UpdatedAt: rt.now(),
	}, nil
}

// windowedSummaries fetches enriched summaries within the lookback window,
// retrying without the time filter when the window comes back empty. Slow
// news days still produce a narrative from the latest available coverage.
func (rt *Runtime) windowedSummaries(ctx context.Context, symbols []string, limit int) ([]articles.SummaryItem, error) {
	cutoff := rt.now().Add(-rt.Config.Lookback())
	items, err := rt.Articles.Summaries(ctx, symbols, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	if len(items) > 0 {
		return items, nil
	}
	items, err = rt.Articles.Summaries(ctx, symbols, time.Time{}, limit)
	if err != nil {
		return nil, fmt.Errorf("summaries unwindowed: %w", err)
	}
	return items, nil
}

func compactItems(rt *Runtime, items []articles.SummaryItem, limit int, withSymbol bool) []rollupItem {
	if len(items) > limit {
		items = items[:limit]
	}
	now := rt.now()
	out := make([]rollupItem, 0, len(items))
	for _, item := range items {
		compact := rollupItem{
			Headline:  formatting.Truncate(item.Headline, headlineLimit),
			Summary:   item.Summary,
			KeyPoints: item.KeyPoints,
			Sentiment: item.Sentiment,
			HoursAgo:  hoursAgo(now, item.PublishedAt),
		}
		if withSymbol {
			compact.Symbol = item.Symbol
		}
		out = append(out, compact)
	}
	return out
}

func hoursAgo(now, published time.Time) float64 {
	if published.IsZero() {
		return 999
	}
	return math.Round(now.Sub(published).Hours()*10) / 10
}
