// Package articles provides the article domain: candidate selection for
// enrichment, enriched-summary queries for rollups, and bulk persistence of
// enrichment rows and sentiment corrections.
package articles

import (
	"time"

	"github.com/google/uuid"
)

// InputSource records how much article context was available to the model.
type InputSource string

const (
	SourceSummaryOnly InputSource = "summary_only"
	SourceSummaryBody InputSource = "summary_body"
)

// Candidate is an ingested article eligible for enrichment: confidence at or
// above the configured minimum and no enrichment row yet.
type Candidate struct {
	ID          uuid.UUID
	Symbol      string
	Headline    string
	Summary     string
	Source      string
	URL         string
	PublishedAt time.Time
	Confidence  float64
	Sentiment   int
	Excerpt     string
	ExcerptOK   bool
}

// InputSource returns the context depth available for this candidate.
func (c Candidate) InputSource() InputSource {
	if c.ExcerptOK && c.Excerpt != "" {
		return SourceSummaryBody
	}
	return SourceSummaryOnly
}

// Enrichment is the derived summary/relevance/sentiment record for one
// article. At most one row exists per article; writes are upserts keyed by
// ArticleID with the second write's mutable fields winning.
type Enrichment struct {
	ArticleID   uuid.UUID
	Symbol      string
	ModelName   string
	InputSource InputSource
	Summary     string
	KeyPoints   []string
	IsRelevant  bool
	CreatedAt   time.Time
}

// SentimentCorrection rewrites the upstream sentiment record for one
// article. Issued only when the refined score diverges from the original by
// more than the configured delta.
type SentimentCorrection struct {
	ArticleID    uuid.UUID
	Score        int
	Label        string
	ModelName    string
	ClassifiedAt time.Time
}

// SummaryItem is an enriched, relevant article as consumed by the rollup
// generators.
type SummaryItem struct {
	Symbol      string
	Headline    string
	Source      string
	PublishedAt time.Time
	Sentiment   int
	Confidence  float64
	Summary     string
	KeyPoints   []string
}

// SentimentLabel buckets a 0-100 score into the labels the sentiment table
// carries.
func SentimentLabel(score int) string {
	switch {
	case score < 35:
		return "very_negative"
	case score < 45:
		return "negative"
	case score < 55:
		return "neutral"
	case score < 65:
		return "positive"
	default:
		return "very_positive"
	}
}
