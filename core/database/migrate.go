package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/voicequotes/core/logger"
)

const previewLimit = 6

// Migrate applies every pending up migration from dir over one connection
// taken from db. The pool itself stays open.
func Migrate(ctx context.Context, db *sqlx.DB, dir string) error {
	path, err := resolveMigrationsDir(dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	plan := scanMigrations(path)
	logger.MIG.LogAttrs(ctx, slog.LevelDebug, "migrations resolved",
		append([]slog.Attr{slog.String("event", "resolve"), slog.String("path", path)}, plan.preview(plan.names())...)...)

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrations connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		logger.MIG.LogAttrs(ctx, slog.LevelError, "init failed",
			slog.String("event", "db.migrate"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.LogAttrs(ctx, slog.LevelError, "migration failed",
			slog.String("event", "apply"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := plan.between(from, to)
	if len(applied) > 0 {
		logger.MIG.LogAttrs(ctx, slog.LevelDebug, "applied files",
			append([]slog.Attr{slog.String("event", "apply")}, plan.preview(applied)...)...)
	}
	logger.MIG.LogAttrs(ctx, slog.LevelInfo, "migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func resolveMigrationsDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "migrations"
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Abs(dir)
}

// migrationPlan lists the up migrations found on disk, ordered by version.
type migrationPlan []*source.Migration

func scanMigrations(dir string) migrationPlan {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var plan migrationPlan
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		mig, err := source.Parse(e.Name())
		if err != nil || mig.Direction != source.Up {
			continue
		}
		plan = append(plan, mig)
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Version < plan[j].Version })
	return plan
}

func (p migrationPlan) names() []string {
	out := make([]string, len(p))
	for i, m := range p {
		out[i] = m.Raw
	}
	return out
}

// between returns the files with from < version <= to.
func (p migrationPlan) between(from, to uint) []string {
	var out []string
	for _, m := range p {
		if m.Version > from && m.Version <= to {
			out = append(out, m.Raw)
		}
	}
	return out
}

func (migrationPlan) preview(names []string) []slog.Attr {
	attrs := []slog.Attr{slog.Int("files_total", len(names))}
	if len(names) == 0 {
		return attrs
	}
	if len(names) > previewLimit {
		names = names[:previewLimit]
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return append(attrs, slog.String("files_preview", strings.Join(names, ", ")))
}
