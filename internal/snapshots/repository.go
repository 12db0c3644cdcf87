package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/newsroll/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a snapshot repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "snapshots"),
	}
}

const narrativeQuery = `
	SELECT COALESCE(narrative, '')
	FROM symbol_daily_snapshots
	WHERE symbol = $1 AND asof_date = $2`

func (r *repo) NeedsRollup(ctx context.Context, symbol, date string) (bool, error) {
	narrative, err := repository.QueryOne(ctx, r.db, narrativeQuery, []any{symbol, date}, scanNarrative)
	if err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("query snapshot for %s/%s: %w", symbol, date, err)
	}

	return strings.TrimSpace(narrative) == "", nil
}

func (r *repo) ForDate(ctx context.Context, symbols []string, date string) ([]Snapshot, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`
	SELECT symbol, asof_date, narrative, updated_at
	FROM symbol_daily_snapshots
	WHERE symbol IN (`)

	for i, sym := range symbols {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, sym)
		fmt.Fprintf(&sb, "$%d", len(args))
	}
	sb.WriteString(")")

	args = append(args, date)
	fmt.Fprintf(&sb, "\n\t\tAND asof_date = $%d", len(args))
	sb.WriteString("\n\t\tAND COALESCE(narrative, '') <> ''")
	sb.WriteString("\n\tORDER BY updated_at DESC")

	rows, err := repository.QueryMany(ctx, r.db, sb.String(), args, scanSnapshot)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	return rows, nil
}

const upsertQuery = `
	INSERT INTO symbol_daily_snapshots (symbol, asof_date, narrative, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (symbol, asof_date) DO UPDATE SET
		narrative = EXCLUDED.narrative,
		updated_at = EXCLUDED.updated_at`

func (r *repo) Upsert(ctx context.Context, rows []Snapshot) error {
	if len(rows) == 0 {
		return nil
	}

	batch := make([][]any, 0, len(rows))
	for _, s := range rows {
		batch = append(batch, []any{s.Symbol, s.AsOfDate, s.Narrative, s.UpdatedAt})
	}

	if err := repository.ExecMany(ctx, r.db, upsertQuery, batch); err != nil {
		return fmt.Errorf("upsert snapshots: %w", mapError(err))
	}

	r.logger.Info("snapshots flushed", "count", len(rows))
	return nil
}

func scanNarrative(sc repository.Scanner) (string, error) {
	var narrative string
	err := sc.Scan(&narrative)
	return narrative, err
}

func scanSnapshot(sc repository.Scanner) (Snapshot, error) {
	var (
		s    Snapshot
		asof time.Time
	)

	if err := sc.Scan(&s.Symbol, &asof, &s.Narrative, &s.UpdatedAt); err != nil {
		return s, err
	}

	s.AsOfDate = asof.Format("2006-01-02")
	return s, nil
}
