// Package bootstrap brings up logging and storage before the bot starts:
// logger, database pool, migrations and seeders, in that order.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	coredatabase "github.com/m3rciful/voicequotes/core/database"
	"github.com/m3rciful/voicequotes/core/logger"
)

// Seeder loads reference data once migrations have been applied.
type Seeder interface {
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a function to Seeder.
type SeederFunc func(ctx context.Context, db *sqlx.DB) error

// Seed calls f.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error {
	return f(ctx, db)
}

// NamedSeeder labels a seeder in logs and errors.
type NamedSeeder struct {
	Name   string
	Seeder Seeder
}

// Options control Run. Nil steps fall back to the real implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Seeders  []NamedSeeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(ctx context.Context, db *sqlx.DB, dir string) error
}

// Result holds what Run brought up. The caller owns DB.
type Result struct {
	DB *sqlx.DB
}

// Run executes the pipeline. On failure every resource opened so far is released.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := opts.prepare(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Result{DB: db}, nil
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Open
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.Migrate
	}
}

func (o *Options) prepare(ctx context.Context, db *sqlx.DB) error {
	if err := o.Migrate(ctx, db, o.Database.MigrationsDir); err != nil {
		return fmt.Errorf("bootstrap: migrations: %w", err)
	}
	for _, s := range o.Seeders {
		if s.Seeder == nil {
			continue
		}
		start := time.Now()
		if err := s.Seeder.Seed(ctx, db); err != nil {
			logger.Error(ctx, "db.seed", "seed.fail",
				slog.String("name", s.Name),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("bootstrap: seeder %s: %w", s.Name, err)
		}
		logger.Info(ctx, "db.seed", "seed.done",
			slog.String("name", s.Name),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}
