package pipeline

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/pkg/formatting"
)

const (
	headlineLimit = 220
	sourceLimit   = 60
	urlLimit      = 300
)

// symbolOutcome carries everything stage one produced for a single symbol.
// Rows are held in memory until the orchestrator flushes them, so workers
// never touch the database concurrently.
type symbolOutcome struct {
	symbol      string
	enrichments []articles.Enrichment
	corrections []articles.SentimentCorrection
}

type batchItem struct {
	ArticleID      string `json:"article_id"`
	Symbol         string `json:"symbol"`
	Headline       string `json:"headline"`
	Source         string `json:"source"`
	URL            string `json:"url"`
	InputSource    string `json:"input_source"`
	Text           string `json:"text"`
	SentimentScore int    `json:"sentiment_score"`
}

type batchResponse struct {
	ArticleID      string   `json:"article_id"`
	IsRelevant     bool     `json:"is_relevant"`
	SentimentScore *int     `json:"sentiment_score"`
	ArticleSummary string   `json:"article_summary"`
	KeyPoints      []string `json:"key_points"`
}

type itemResult struct {
	inputSource articles.InputSource
	summary     string
	keyPoints   []string
	isRelevant  bool
	refined     int
	original    int
}

// enrichSymbol fetches unenriched candidates for one symbol, summarizes
// them in fixed-size chunks, and returns the rows to persist. The wall-clock
// budget is checked before each chunk so one slow symbol cannot dominate
// the worker pool; a chunk already in flight is allowed to finish.
func enrichSymbol(ctx context.Context, rt *Runtime, symbol string) (*symbolOutcome, error) {
	cands, err := rt.Articles.Candidates(ctx, symbol, rt.Config.MaxArticlesPerSymbol)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	if len(cands) == 0 {
		return nil, nil
	}
	rt.Logger.Debug("enriching symbol", "symbol", symbol, "candidates", len(cands))

	start := rt.now()
	budget := rt.Config.SymbolBudgetDuration()
	results := make(map[uuid.UUID]itemResult)
	for batch := range slices.Chunk(cands, rt.Config.BatchSize) {
		if rt.now().Sub(start) > budget {
			rt.Logger.Warn("symbol budget exhausted",
				"symbol", symbol,
				"summarized", len(results),
				"pending", len(cands)-len(results))
			break
		}
		part, err := summarizeBatch(ctx, rt, symbol, batch)
		if err != nil {
			return nil, err
		}
		maps.Copy(results, part)
	}
	if len(results) == 0 {
		return nil, nil
	}

	out := &symbolOutcome{symbol: symbol}
	now := rt.now()
	for _, c := range cands {
		res, ok := results[c.ID]
		if !ok {
			continue
		}
		out.enrichments = append(out.enrichments, articles.Enrichment{
			ArticleID:   c.ID,
			Symbol:      c.Symbol,
			ModelName:   rt.Provider.Name(),
			InputSource: res.inputSource,
			Summary:     res.summary,
			KeyPoints:   res.keyPoints,
			IsRelevant:  res.isRelevant,
			CreatedAt:   now,
		})
		if math.Abs(float64(res.refined-res.original)) > rt.Config.SentimentDelta {
			out.corrections = append(out.corrections, articles.SentimentCorrection{
				ArticleID:    c.ID,
				Score:        res.refined,
				Label:        articles.SentimentLabel(res.refined),
				ModelName:    rt.Provider.Name() + "-refined",
				ClassifiedAt: now,
			})
		}
	}
	return out, nil
}

// summarizeBatch makes one model call for a chunk of candidates and keeps
// only results that survive validation. An unparseable response yields an
// empty map rather than an error so the remaining chunks still run.
func summarizeBatch(ctx context.Context, rt *Runtime, symbol string, cands []articles.Candidate) (map[uuid.UUID]itemResult, error) {
	items := make([]batchItem, 0, len(cands))
	index := make(map[string]articles.Candidate, len(cands))
	for _, c := range cands {
		items = append(items, batchItem{
			ArticleID:      c.ID.String(),
			Symbol:         c.Symbol,
			Headline:       formatting.Truncate(c.Headline, headlineLimit),
			Source:         formatting.Truncate(c.Source, sourceLimit),
			URL:            formatting.Truncate(c.URL, urlLimit),
			InputSource:    string(c.InputSource()),
			Text:           formatting.Truncate(articleText(c), rt.Config.BatchMaxTextChars),
			SentimentScore: c.Sentiment,
		})
		index[c.ID.String()] = c
	}

	raw, err := rt.generate(ctx, batchInstruction(symbol), items)
	if err != nil {
		return nil, fmt.Errorf("summarize batch: %w", err)
	}

	parsed, err := formatting.Parse[[]batchResponse](raw)
	if err != nil {
		rt.Logger.Warn("discarding unparseable batch response", "symbol", symbol, "error", err)
		return nil, nil
	}

	out := make(map[uuid.UUID]itemResult, len(parsed))
	for _, item := range parsed {
		cand, ok := index[strings.TrimSpace(item.ArticleID)]
		if !ok {
			continue
		}
		summary := strings.TrimSpace(item.ArticleSummary)
		if summary == "" {
			continue
		}
		points := cleanKeyPoints(item.KeyPoints)
		if points == nil {
			continue
		}
		refined := cand.Sentiment
		if item.SentimentScore != nil {
			refined = *item.SentimentScore
		}
		out[cand.ID] = itemResult{
			inputSource: cand.InputSource(),
			summary:     summary,
			keyPoints:   points,
			isRelevant:  item.IsRelevant,
			refined:     refined,
			original:    cand.Sentiment,
		}
	}
	return out, nil
}

// cleanKeyPoints trims and drops empty entries, requiring at least three
// survivors and keeping exactly the first three.
func cleanKeyPoints(points []string) []string {
	cleaned := make([]string, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) < 3 {
		return nil
	}
	return cleaned[:3]
}

func articleText(c articles.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HEADLINE: %s\n", c.Headline)
	fmt.Fprintf(&b, "SOURCE: %s\n", c.Source)
	fmt.Fprintf(&b, "SUMMARY: %s\n", c.Summary)
	if c.ExcerptOK && c.Excerpt != "" {
		fmt.Fprintf(&b, "BODY: %s\n", c.Excerpt)
	}
	return b.String()
}
