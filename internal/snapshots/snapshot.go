// Package snapshots provides the per-symbol daily narrative domain.
package snapshots

import "time"

// Snapshot is one synthesized daily narrative, keyed by (symbol, asof date).
// AsOfDate is an exchange-local calendar date in YYYY-MM-DD form.
type Snapshot struct {
	Symbol    string
	AsOfDate  string
	Narrative string
	UpdatedAt time.Time
}
