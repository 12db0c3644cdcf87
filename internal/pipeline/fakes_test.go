package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/internal/config"
	"github.com/JaimeStill/newsroll/internal/model"
	"github.com/JaimeStill/newsroll/internal/reference"
	"github.com/JaimeStill/newsroll/internal/snapshots"
)

type summariesCall struct {
	symbols []string
	since   time.Time
	limit   int
}

type fakeArticles struct {
	mu         sync.Mutex
	candidates map[string][]articles.Candidate
	summaries  []articles.SummaryItem

	// emptyWindow simulates a quiet lookback period: any time-filtered
	// query returns nothing while the unfiltered retry sees everything.
	emptyWindow bool

	summaryCalls []summariesCall
	enrichments  map[uuid.UUID]articles.Enrichment
	corrections  []articles.SentimentCorrection
}

// Candidates mirrors the real selector's exclusion rule: an article with an
// enrichment row is never a candidate again.
func (f *fakeArticles) Candidates(_ context.Context, symbol string, limit int) ([]articles.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cands []articles.Candidate
	for _, c := range f.candidates[symbol] {
		if _, enriched := f.enrichments[c.ID]; enriched {
			continue
		}
		cands = append(cands, c)
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func (f *fakeArticles) Summaries(_ context.Context, symbols []string, since time.Time, limit int) ([]articles.SummaryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls = append(f.summaryCalls, summariesCall{slices.Clone(symbols), since, limit})

	if f.emptyWindow && !since.IsZero() {
		return nil, nil
	}

	var out []articles.SummaryItem
	for _, item := range f.summaries {
		if !slices.Contains(symbols, item.Symbol) {
			continue
		}
		if !since.IsZero() && item.PublishedAt.Before(since) {
			continue
		}
		out = append(out, item)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertEnrichments is keyed by article id like the real store: at most one
// row per article, with the second write's fields winning.
func (f *fakeArticles) UpsertEnrichments(_ context.Context, rows []articles.Enrichment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enrichments == nil {
		f.enrichments = make(map[uuid.UUID]articles.Enrichment)
	}
	for _, row := range rows {
		f.enrichments[row.ArticleID] = row
	}
	return nil
}

func (f *fakeArticles) CorrectSentiments(_ context.Context, rows []articles.SentimentCorrection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corrections = append(f.corrections, rows...)
	return nil
}

type fakeSnapshots struct {
	mu   sync.Mutex
	rows map[string]snapshots.Snapshot
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{rows: make(map[string]snapshots.Snapshot)}
}

func (f *fakeSnapshots) key(symbol, date string) string {
	return symbol + "|" + date
}

func (f *fakeSnapshots) NeedsRollup(_ context.Context, symbol, date string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[f.key(symbol, date)]
	if !ok {
		return true, nil
	}
	return row.Narrative == "", nil
}

func (f *fakeSnapshots) ForDate(_ context.Context, symbols []string, date string) ([]snapshots.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []snapshots.Snapshot
	for _, symbol := range symbols {
		if row, ok := f.rows[f.key(symbol, date)]; ok && row.Narrative != "" {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) Upsert(_ context.Context, rows []snapshots.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.rows[f.key(row.Symbol, row.AsOfDate)] = row
	}
	return nil
}

func (f *fakeSnapshots) get(symbol, date string) (snapshots.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[f.key(symbol, date)]
	return row, ok
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Workers:              1,
		LookbackHours:        24,
		MinConfidence:        0.72,
		MaxArticlesPerSymbol: 8,
		BatchSize:            5,
		BatchMaxTextChars:    1500,
		SymbolBudget:         "30s",
		SentimentDelta:       5,
		MaxHoldings:          6,
		MaxRollupItems:       14,
		Timezone:             "UTC",
		Retry: config.RetryConfig{
			BaseDelay:   "1ms",
			MaxDelay:    "2ms",
			MaxAttempts: 3,
			Jitter:      "0s",
		},
	}
}

func testUniverse(t *testing.T) *reference.Universe {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickers.json")
	data := `{
		"companies": [
			{ "symbol": "AAPL", "name": "Apple Inc.", "sector": "Technology" },
			{ "symbol": "MSFT", "name": "Microsoft Corporation", "sector": "Technology" },
			{ "symbol": "QQQ", "name": "Invesco QQQ Trust", "sector": "ETF" }
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write tickers: %v", err)
	}
	u, err := reference.LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse error: %v", err)
	}
	return u
}

func testHoldings() *reference.Index {
	funds := []reference.Fund{
		{
			Symbol: "QQQ",
			TopHoldings: []reference.Holding{
				{Symbol: "AAPL", WeightPct: 9.1},
				{Symbol: "MSFT", WeightPct: 8.7},
			},
		},
	}
	return reference.BuildIndex(funds, 6)
}

func newRuntime(t *testing.T, arts *fakeArticles, snaps *fakeSnapshots, provider model.Provider) *Runtime {
	t.Helper()
	if arts.candidates == nil {
		arts.candidates = make(map[string][]articles.Candidate)
	}
	return &Runtime{
		Articles:  arts,
		Snapshots: snaps,
		Provider:  provider,
		Universe:  testUniverse(t),
		Holdings:  testHoldings(),
		Config:    testConfig(),
		Model:     config.ModelConfig{Provider: "scripted", Name: "scripted", Temperature: 0.2, MaxTokens: 512},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func mkCandidate(symbol string, sentiment int, age time.Duration) articles.Candidate {
	return articles.Candidate{
		ID:          uuid.New(),
		Symbol:      symbol,
		Headline:    fmt.Sprintf("%s moves on fresh guidance", symbol),
		Summary:     "Management raised its outlook for the quarter.",
		Source:      "newswire",
		URL:         "https://example.com/story",
		PublishedAt: time.Now().Add(-age),
		Confidence:  0.9,
		Sentiment:   sentiment,
	}
}

// batchReply builds the scripted model response for a chunk of candidates,
// shifting each sentiment score by shift from its original.
func batchReply(cands []articles.Candidate, shift int) string {
	type item struct {
		ArticleID      string   `json:"article_id"`
		IsRelevant     bool     `json:"is_relevant"`
		SentimentScore int      `json:"sentiment_score"`
		ArticleSummary string   `json:"article_summary"`
		KeyPoints      []string `json:"key_points"`
	}
	out := make([]item, 0, len(cands))
	for _, c := range cands {
		out = append(out, item{
			ArticleID:      c.ID.String(),
			IsRelevant:     true,
			SentimentScore: c.Sentiment + shift,
			ArticleSummary: "Guidance raise signals stronger demand ahead.",
			KeyPoints:      []string{"Outlook raised", "Demand firming", "Margins steady"},
		})
	}
	data, _ := json.Marshal(out)
	return string(data)
}

const goodNarrative = "Coverage today centered on the raised outlook, with sentiment improving across most items and no material negative offsets in the recent news flow."
