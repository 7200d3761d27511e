// Package app wires configuration, storage and the Telegram runtime together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/voicequotes/core/bootstrap"
	"github.com/m3rciful/voicequotes/core/cmd"
	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/state"
	"github.com/m3rciful/voicequotes/internal/admins"
	"github.com/m3rciful/voicequotes/internal/config"
	"github.com/m3rciful/voicequotes/internal/quotes"
)

// App holds the storage layer shared by the bot and the CLI commands.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	mirror *state.RedisMirror

	Sessions state.MemoryStore
	Quotes   quotes.Repository
	Admins   admins.Registry
	Journal  quotes.Journal
}

// Options replace infrastructure steps, mostly for tests.
type Options struct {
	Bootstrap func(context.Context, bootstrap.Options) (*bootstrap.Result, error)
	// SkipMirror disables the Redis session mirror even when configured.
	SkipMirror bool
}

// Open initializes logging, the database with migrations and admin seeding,
// and the session store.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	run := opts.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}

	res, err := run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders: []bootstrap.NamedSeeder{
			{Name: "admins", Seeder: adminSeeder(cfg.AdminSeeds())},
		},
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		db:      res.DB,
		Quotes:  quotes.NewPostgresRepository(res.DB, cfg.Quotes.SearchLimit),
		Admins:  admins.NewPostgresRegistry(res.DB),
		Journal: quotes.NewPostgresJournal(res.DB),
	}

	var storeOpts []state.Option
	if cfg.Redis.Enabled() && !opts.SkipMirror {
		mirror, err := state.NewRedisMirror(ctx, state.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: session mirror: %w", err)
		}
		a.mirror = mirror
		storeOpts = append(storeOpts, state.WithMirror(mirror))
	}
	a.Sessions = state.NewMemoryStore(storeOpts...)

	if a.mirror != nil {
		n, err := a.Sessions.Restore(ctx)
		if err != nil {
			logger.Warn(ctx, "session", "restore.fail", slog.String("err", err.Error()))
		} else {
			logger.Info(ctx, "session", "restore.done", slog.Int("restored", n))
		}
	}
	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.mirror != nil {
		errs = append(errs, a.mirror.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func adminSeeder(ids []int64) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		added, err := admins.Seed(ctx, admins.NewPostgresRegistry(db), ids)
		if err != nil {
			return err
		}
		logger.Info(ctx, "service.admins", "seed.admins",
			slog.Int("configured", len(ids)),
			slog.Int("added", added),
		)
		return nil
	})
}

// Bootstrap adapts Open and the bot wiring to the command runner.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	a, err := Open(ctx, cfg, Options{})
	if err != nil {
		return nil, err
	}
	return NewBot(a), nil
}
