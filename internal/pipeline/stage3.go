package pipeline

import (
	"context"
	"fmt"

	"github.com/JaimeStill/newsroll/internal/snapshots"
	"github.com/JaimeStill/newsroll/pkg/formatting"
)

// etfFetchLimit bounds the raw-summary fallback query across all members.
const etfFetchLimit = 200

// memberSnapshot is the compact shape sent to the model when per-symbol
// narratives already exist for the day.
type memberSnapshot struct {
	Symbol       string  `json:"symbol"`
	DailySummary string  `json:"daily_summary"`
	HoursAgo     float64 `json:"hours_ago"`
}

// rollupETF produces the cross-holding narrative for one ETF. A triggered
// ETF (a top holding changed this run) bypasses the freshness gate so its
// narrative reflects the new member state. Member daily narratives are the
// preferred source; raw article summaries across members are the fallback.
func rollupETF(ctx context.Context, rt *Runtime, etf, asof string, triggered bool) (*snapshots.Snapshot, error) {
	if !triggered {
		needs, err := rt.Snapshots.NeedsRollup(ctx, etf, asof)
		if err != nil {
			return nil, fmt.Errorf("freshness check: %w", err)
		}
		if !needs {
			return nil, nil
		}
	}

	members := append([]string{etf}, rt.Holdings.TopHoldings(etf)...)

	var raw string
	rollups, err := rt.Snapshots.ForDate(ctx, members, asof)
	if err != nil {
		return nil, fmt.Errorf("member snapshots: %w", err)
	}
	if len(rollups) > 0 {
		raw, err = rt.generate(ctx, etfSnapshotRollupInstruction(etf), compactSnapshots(rt, rollups, rt.Config.MaxHoldings+1))
		if err != nil {
			return nil, fmt.Errorf("etf rollup: %w", err)
		}
	} else {
		items, err := rt.windowedSummaries(ctx, members, etfFetchLimit)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		raw, err = rt.generate(ctx, etfArticleRollupInstruction(etf), compactItems(rt, items, rt.Config.MaxRollupItems, true))
		if err != nil {
			return nil, fmt.Errorf("etf rollup: %w", err)
		}
	}

	narrative := formatting.StripFences(raw)
	if !validNarrative(narrative) {
		rt.Logger.Warn("rejected etf narrative", "etf", etf, "length", len(narrative))
		return nil, nil
	}
	return &snapshots.Snapshot{
		Symbol:    etf,
		AsOfDate:  asof,
		Narrative: narrative,
		UpdatedAt: rt.now(),
	}, nil
}

func compactSnapshots(rt *Runtime, rollups []snapshots.Snapshot, limit int) []memberSnapshot {
	if len(rollups) > limit {
		rollups = rollups[:limit]
	}
	now := rt.now()
	out := make([]memberSnapshot, 0, len(rollups))
	for _, snap := range rollups {
		out = append(out, memberSnapshot{
			Symbol:       snap.Symbol,
			DailySummary: snap.Narrative,
			HoursAgo:     hoursAgo(now, snap.UpdatedAt),
		})
	}
	return out
}
