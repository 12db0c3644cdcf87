package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/internal/snapshots"
)

// Stats summarizes one pipeline run.
type Stats struct {
	NewEnrichments    int
	RefinedSentiments int
	Rollups           int
	Failures          int
}

// Run executes the three stages in order. Workers within a stage run
// concurrently under the configured limit and only accumulate results in
// memory; each stage ends with a single-threaded flush, so stage N+1 always
// reads everything stage N wrote. A symbol or ETF failure is logged and
// counted but never aborts the run; only a flush failure does.
func Run(ctx context.Context, rt *Runtime, force bool) (*Stats, error) {
	asof := rt.asOfDate()
	symbols := rt.Universe.Enabled()
	stats := &Stats{}
	rt.Logger.Info("pipeline run starting",
		"asof", asof,
		"symbols", len(symbols),
		"workers", rt.Config.Workers,
		"force", force)

	var (
		mu          sync.Mutex
		enrichments []articles.Enrichment
		corrections []articles.SentimentCorrection
		changed     []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.Config.Workers)
	for _, symbol := range symbols {
		g.Go(func() error {
			out, err := guard(rt, "enrich", symbol, func() (*symbolOutcome, error) {
				return enrichSymbol(gctx, rt, symbol)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failures++
				return nil
			}
			if out == nil || len(out.enrichments) == 0 {
				return nil
			}
			enrichments = append(enrichments, out.enrichments...)
			corrections = append(corrections, out.corrections...)
			changed = append(changed, out.symbol)
			return nil
		})
	}
	g.Wait()

	if len(enrichments) > 0 {
		if err := rt.Articles.UpsertEnrichments(ctx, enrichments); err != nil {
			return stats, fmt.Errorf("flush enrichments: %w", err)
		}
	}
	if len(corrections) > 0 {
		if err := rt.Articles.CorrectSentiments(ctx, corrections); err != nil {
			return stats, fmt.Errorf("flush sentiment corrections: %w", err)
		}
	}
	stats.NewEnrichments = len(enrichments)
	stats.RefinedSentiments = len(corrections)
	slices.Sort(changed)
	rt.Logger.Info("enrichment stage complete",
		"enrichments", stats.NewEnrichments,
		"corrections", stats.RefinedSentiments,
		"changed", len(changed))

	var pending []snapshots.Snapshot
	rollups := symbolRollupTargets(rt, changed)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(rt.Config.Workers)
	for _, symbol := range rollups {
		g.Go(func() error {
			snap, err := guard(rt, "rollup", symbol, func() (*snapshots.Snapshot, error) {
				return rollupSymbol(gctx, rt, symbol, asof, force)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failures++
				return nil
			}
			if snap != nil {
				pending = append(pending, *snap)
			}
			return nil
		})
	}
	g.Wait()

	if err := flushSnapshots(ctx, rt, pending, stats); err != nil {
		return stats, err
	}
	rt.Logger.Info("symbol rollup stage complete", "rollups", len(pending))

	pending = pending[:0]
	etfs, triggered := etfRollupTargets(rt, changed)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(rt.Config.Workers)
	for _, etf := range etfs {
		g.Go(func() error {
			snap, err := guard(rt, "etf rollup", etf, func() (*snapshots.Snapshot, error) {
				return rollupETF(gctx, rt, etf, asof, triggered[etf] || force)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failures++
				return nil
			}
			if snap != nil {
				pending = append(pending, *snap)
			}
			return nil
		})
	}
	g.Wait()

	if err := flushSnapshots(ctx, rt, pending, stats); err != nil {
		return stats, err
	}
	rt.Logger.Info("pipeline run complete",
		"enrichments", stats.NewEnrichments,
		"corrections", stats.RefinedSentiments,
		"rollups", stats.Rollups,
		"failures", stats.Failures)
	return stats, nil
}

// guard isolates one worker unit: a panic or error is converted into a
// logged, counted failure without disturbing sibling workers.
func guard[T any](rt *Runtime, stage, key string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			rt.Logger.Error("worker panicked", "stage", stage, "symbol", key, "error", err)
		}
	}()
	result, err = fn()
	if err != nil {
		rt.Logger.Error("worker failed", "stage", stage, "symbol", key, "error", err)
	}
	return result, err
}

// symbolRollupTargets keeps the changed symbols that get their own daily
// narrative. ETFs are excluded here; stage three owns them.
func symbolRollupTargets(rt *Runtime, changed []string) []string {
	targets := make([]string, 0, len(changed))
	for _, symbol := range changed {
		if !rt.Universe.IsETF(symbol) {
			targets = append(targets, symbol)
		}
	}
	return targets
}

// etfRollupTargets returns every ETF to visit in stage three plus the
// triggered set: funds holding a symbol that changed this run, and changed
// symbols that are themselves ETFs.
func etfRollupTargets(rt *Runtime, changed []string) ([]string, map[string]bool) {
	triggered := make(map[string]bool)
	for _, symbol := range changed {
		for _, fund := range rt.Holdings.Funds(symbol) {
			triggered[fund] = true
		}
		if rt.Universe.IsETF(symbol) {
			triggered[symbol] = true
		}
	}

	etfs := rt.Universe.ETFs()
	for fund := range triggered {
		if !slices.Contains(etfs, fund) {
			etfs = append(etfs, fund)
		}
	}
	slices.Sort(etfs)
	return etfs, triggered
}

func flushSnapshots(ctx context.Context, rt *Runtime, pending []snapshots.Snapshot, stats *Stats) error {
	if len(pending) == 0 {
		return nil
	}
	if err := rt.Snapshots.Upsert(ctx, pending); err != nil {
		return fmt.Errorf("flush snapshots: %w", err)
	}
	stats.Rollups += len(pending)
	return nil
}
