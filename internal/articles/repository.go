package articles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/newsroll/pkg/repository"
)

type repo struct {
	db            *sql.DB
	logger        *slog.Logger
	minConfidence float64
}

// New creates an article repository implementing the System interface.
// minConfidence gates both candidate selection and summary queries.
func New(db *sql.DB, logger *slog.Logger, minConfidence float64) System {
	return &repo{
		db:            db,
		logger:        logger.With("system", "articles"),
		minConfidence: minConfidence,
	}
}

const candidatesQuery = `
	SELECT
		a.id, a.symbol, a.headline,
		COALESCE(a.summary, ''), COALESCE(a.source, ''), COALESCE(a.url, ''),
		a.published_at,
		COALESCE(s.confidence, 0), COALESCE(s.score, 50),
		COALESCE(c.excerpt, ''), COALESCE(c.status, '')
	FROM articles a
	JOIN article_sentiment s ON s.article_id = a.id
	LEFT JOIN article_content c ON c.article_id = a.id
	LEFT JOIN article_enrichments e ON e.article_id = a.id
	WHERE a.symbol = $1
		AND s.confidence >= $2
		AND e.article_id IS NULL
	ORDER BY a.published_at DESC
	LIMIT $3`

func (r *repo) Candidates(ctx context.Context, symbol string, limit int) ([]Candidate, error) {
	args := []any{symbol, r.minConfidence, limit}
	cands, err := repository.QueryMany(ctx, r.db, candidatesQuery, args, scanCandidate)
	if err != nil {
		return nil, fmt.Errorf("query candidates for %s: %w", symbol, mapError(err))
	}
	return cands, nil
}

func (r *repo) Summaries(ctx context.Context, symbols []string, since time.Time, limit int) ([]SummaryItem, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`
	SELECT
		a.symbol, a.headline, COALESCE(a.source, ''), a.published_at,
		COALESCE(s.score, 50), COALESCE(s.confidence, 0),
		e.summary, e.key_points
	FROM articles a
	JOIN article_sentiment s ON s.article_id = a.id
	JOIN article_enrichments e ON e.article_id = a.id
	WHERE a.symbol IN (`)

	for i, sym := range symbols {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, sym)
		fmt.Fprintf(&sb, "$%d", len(args))
	}
	sb.WriteString(")")

	args = append(args, r.minConfidence)
	fmt.Fprintf(&sb, "\n\t\tAND s.confidence >= $%d", len(args))
	sb.WriteString("\n\t\tAND e.is_relevant")

	if !since.IsZero() {
		args = append(args, since)
		fmt.Fprintf(&sb, "\n\t\tAND a.published_at >= $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, "\n\tORDER BY a.published_at DESC\n\tLIMIT $%d", len(args))

	items, err := repository.QueryMany(ctx, r.db, sb.String(), args, scanSummaryItem)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", mapError(err))
	}
	return items, nil
}

const upsertEnrichmentQuery = `
	INSERT INTO article_enrichments (
		article_id, symbol, model_name, input_source,
		summary, key_points, is_relevant, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (article_id) DO UPDATE SET
		model_name = EXCLUDED.model_name,
		input_source = EXCLUDED.input_source,
		summary = EXCLUDED.summary,
		key_points = EXCLUDED.key_points,
		is_relevant = EXCLUDED.is_relevant,
		created_at = EXCLUDED.created_at`

func (r *repo) UpsertEnrichments(ctx context.Context, rows []Enrichment) error {
	if len(rows) == 0 {
		return nil
	}

	batch := make([][]any, 0, len(rows))
	for _, e := range rows {
		points, err := json.Marshal(e.KeyPoints)
		if err != nil {
			return fmt.Errorf("marshal key points for %s: %w", e.ArticleID, err)
		}
		batch = append(batch, []any{
			e.ArticleID,
			e.Symbol,
			e.ModelName,
			string(e.InputSource),
			e.Summary,
			points,
			e.IsRelevant,
			e.CreatedAt,
		})
	}

	if err := repository.ExecMany(ctx, r.db, upsertEnrichmentQuery, batch); err != nil {
		return fmt.Errorf("upsert enrichments: %w", mapError(err))
	}

	r.logger.Info("enrichments flushed", "count", len(rows))
	return nil
}

const correctSentimentQuery = `
	UPDATE article_sentiment SET
		score = $1,
		label = $2,
		model_name = $3,
		classified_at = $4
	WHERE article_id = $5`

func (r *repo) CorrectSentiments(ctx context.Context, rows []SentimentCorrection) error {
	if len(rows) == 0 {
		return nil
	}

	batch := make([][]any, 0, len(rows))
	for _, c := range rows {
		batch = append(batch, []any{c.Score, c.Label, c.ModelName, c.ClassifiedAt, c.ArticleID})
	}

	if err := repository.ExecMany(ctx, r.db, correctSentimentQuery, batch); err != nil {
		return fmt.Errorf("correct sentiments: %w", mapError(err))
	}

	r.logger.Info("sentiment corrections flushed", "count", len(rows))
	return nil
}

func scanCandidate(s repository.Scanner) (Candidate, error) {
	var (
		c      Candidate
		status string
	)

	if err := s.Scan(
		&c.ID, &c.Symbol, &c.Headline,
		&c.Summary, &c.Source, &c.URL,
		&c.PublishedAt,
		&c.Confidence, &c.Sentiment,
		&c.Excerpt, &status,
	); err != nil {
		return c, err
	}

	c.ExcerptOK = status == "ok"
	return c, nil
}

func scanSummaryItem(s repository.Scanner) (SummaryItem, error) {
	var (
		item   SummaryItem
		points []byte
	)

	if err := s.Scan(
		&item.Symbol, &item.Headline, &item.Source, &item.PublishedAt,
		&item.Sentiment, &item.Confidence,
		&item.Summary, &points,
	); err != nil {
		return item, err
	}

	if len(points) > 0 {
		if err := json.Unmarshal(points, &item.KeyPoints); err != nil {
			return item, fmt.Errorf("unmarshal key points: %w", err)
		}
	}

	return item, nil
}
