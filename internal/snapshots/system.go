package snapshots

import "context"

// System defines the public contract for snapshot domain operations.
type System interface {
	// NeedsRollup reports whether a narrative should be generated for
	// (symbol, date): true when no row exists or the stored narrative is
	// empty. Force-regeneration is the caller's concern.
	NeedsRollup(ctx context.Context, symbol, date string) (bool, error)

	// ForDate returns the snapshots for the given symbols on date,
	// excluding rows whose narrative is empty.
	ForDate(ctx context.Context, symbols []string, date string) ([]Snapshot, error)

	// Upsert bulk-writes snapshot rows keyed by (symbol, asof date), the
	// second write's narrative and timestamp winning.
	Upsert(ctx context.Context, rows []Snapshot) error
}
