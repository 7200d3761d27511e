package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/voicequotes/core/logger"
)

const (
	uniqueViolation = "23505"
	quoteColumns    = `id, media_ref, title, created_at, COALESCE(broadcast_ref, 0) AS broadcast_ref`
)

// PostgresRepository stores quotes in the "quotes" table.
type PostgresRepository struct {
	db    *sqlx.DB
	limit int
}

// NewPostgresRepository wraps an open connection.
func NewPostgresRepository(db *sqlx.DB, searchLimit int) *PostgresRepository {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &PostgresRepository{db: db, limit: searchLimit}
}

// Add inserts a quote; the unique index on media_ref resolves concurrent duplicates.
func (r *PostgresRepository) Add(ctx context.Context, mediaRef, title string, opts ...AddOption) (Quote, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Quote{}, ErrEmptyTitle
	}
	var in Quote
	for _, opt := range opts {
		opt(&in)
	}
	start := time.Now()
	var q Quote
	err := r.db.GetContext(ctx, &q,
		`INSERT INTO quotes (media_ref, title, broadcast_ref) VALUES ($1, $2, NULLIF($3::integer, 0))
		 RETURNING `+quoteColumns,
		mediaRef, title, in.BroadcastRef,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Quote{}, ErrDuplicateMedia
		}
		logger.Error(ctx, "service.quotes", "quote.add",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	logger.Info(ctx, "service.quotes", "quote.add",
		slog.String("status", "ok"),
		slog.Int64("quote_id", q.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return q, nil
}

// Search performs a literal, case-insensitive substring match on title.
func (r *PostgresRepository) Search(ctx context.Context, query string) ([]Quote, error) {
	out := make([]Quote, 0)
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+quoteColumns+` FROM quotes
		 WHERE title ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY id
		 LIMIT $2`,
		escapeLike(query), r.limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search quotes: %w", err)
	}
	return out, nil
}

// ListAll returns every quote in insertion order.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Quote, error) {
	out := make([]Quote, 0)
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+quoteColumns+` FROM quotes ORDER BY id`,
	); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return out, nil
}

// ListPage returns a page of quotes with the total count.
func (r *PostgresRepository) ListPage(ctx context.Context, limit, offset int) ([]Quote, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM quotes`); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}
	out := make([]Quote, 0)
	if limit <= 0 || offset >= total {
		return out, total, nil
	}
	if offset < 0 {
		offset = 0
	}
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+quoteColumns+` FROM quotes ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	); err != nil {
		return nil, 0, fmt.Errorf("page quotes: %w", err)
	}
	return out, total, nil
}

// HasMedia reports whether a quote already uses the media reference.
func (r *PostgresRepository) HasMedia(ctx context.Context, mediaRef string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM quotes WHERE media_ref = $1)`, mediaRef,
	); err != nil {
		return false, fmt.Errorf("lookup media: %w", err)
	}
	return exists, nil
}

// PublishedFrom reports whether a quote was captioned on the channel message.
func (r *PostgresRepository) PublishedFrom(ctx context.Context, messageID int) (bool, error) {
	if messageID == 0 {
		return false, nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM quotes WHERE broadcast_ref = $1)`, messageID,
	); err != nil {
		return false, fmt.Errorf("lookup broadcast: %w", err)
	}
	return exists, nil
}

// DeleteByID deletes the quote; a missing id is not an error.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.Info(ctx, "service.quotes", "quote.delete",
		slog.String("status", "ok"),
		slog.Int64("quote_id", id),
		slog.Int64("count", n),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes query match literally inside an ILIKE pattern.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
