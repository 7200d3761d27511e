package admins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/voicequotes/core/logger"
)

// PostgresRegistry stores admins in the "admins" table.
type PostgresRegistry struct {
	db *sqlx.DB
}

// NewPostgresRegistry wraps an open connection.
func NewPostgresRegistry(db *sqlx.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Add inserts the admin; an existing row is left untouched.
func (r *PostgresRegistry) Add(ctx context.Context, e Entry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (user_id, username) VALUES ($1, NULLIF($2, ''))
		 ON CONFLICT (user_id) DO NOTHING`,
		e.UserID, e.Username,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info(ctx, "service.admins", "admin.add",
			slog.String("status", "ok"),
			slog.Int64("target_user_id", e.UserID),
		)
	}
	return nil
}

// Remove deletes the admin row if present.
func (r *PostgresRegistry) Remove(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info(ctx, "service.admins", "admin.remove",
			slog.String("status", "ok"),
			slog.Int64("target_user_id", userID),
		)
	}
	return nil
}

// Contains reports whether userID is an admin.
func (r *PostgresRegistry) Contains(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID,
	); err != nil {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	return ok, nil
}

// ListAll returns admins ordered by creation.
func (r *PostgresRegistry) ListAll(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, 0)
	if err := r.db.SelectContext(ctx, &out,
		`SELECT user_id, COALESCE(username, '') AS username, created_at
		 FROM admins ORDER BY created_at, user_id`,
	); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}
