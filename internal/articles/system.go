package articles

import (
	"context"
	"time"
)

// System defines the public contract for article domain operations.
type System interface {
	// Candidates returns up to limit unenriched articles for symbol whose
	// upstream confidence meets the configured minimum, newest first.
	// Pure read; no side effects.
	Candidates(ctx context.Context, symbol string, limit int) ([]Candidate, error)

	// Summaries returns enriched, relevant articles for the given symbols,
	// newest first, capped at limit. A zero since disables the recency
	// filter; callers retry with a zero since when the windowed query
	// returns nothing.
	Summaries(ctx context.Context, symbols []string, since time.Time, limit int) ([]SummaryItem, error)

	// UpsertEnrichments bulk-writes enrichment rows, inserting when absent
	// and overwriting mutable fields when present.
	UpsertEnrichments(ctx context.Context, rows []Enrichment) error

	// CorrectSentiments bulk-rewrites upstream sentiment records.
	CorrectSentiments(ctx context.Context, rows []SentimentCorrection) error
}
