package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/voicequotes/core/logger"
)

// Open creates the connection pool and waits until the server answers or the
// ready timeout passes.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	db, err := sqlx.Open("postgres", cfg.KeyValueDSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.poolSize())
	db.SetMaxIdleConns(cfg.poolSize())

	attempts, err := waitReady(ctx, db, cfg.readyTimeout())
	attrs := []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		_ = db.Close()
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed",
			append(attrs, slog.String("event", "db.connect"), slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected",
		append(attrs, slog.String("event", "db.connect"), slog.Int("pool_open", cfg.poolSize()))...)
	return db, nil
}

// waitReady pings db with a growing pause until it answers. It returns the
// number of pings made.
func waitReady(ctx context.Context, db *sqlx.DB, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pause := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return attempt, nil
		}
		logger.DB.LogAttrs(ctx, slog.LevelDebug, "db not ready",
			slog.String("event", "db.ping"),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return attempt, fmt.Errorf("database not ready after %s: %w", timeout, err)
		case <-time.After(pause):
		}
		pause = min(pause*2, 2*time.Second)
	}
}
