// Package cmd runs a configured Telegram application until its context ends.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	"github.com/m3rciful/voicequotes/core/logger"
	coretelegram "github.com/m3rciful/voicequotes/core/telegram"
)

// ConfigCarrier exposes the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the options RunTelegram needs.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wire the steps of Run. Load and Bootstrap are required.
type Options struct {
	ConfigPath string

	Load      func(path string) (ConfigCarrier, error)
	Bootstrap func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the explicit path, then the env variable, then the default.
func ResolveConfigPath(explicit, envVar, fallback string) (string, error) {
	if envVar == "" {
		envVar = "CONFIG_PATH"
	}
	for _, p := range []string{explicit, os.Getenv(envVar), fallback} {
		if p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("cmd: config path not provided via flag, %s or default", envVar)
}

// Run loads the config, bootstraps the app and serves updates until ctx is done.
// The logger is shut down on return.
func Run(ctx context.Context, opts Options) error {
	if opts.Load == nil || opts.Bootstrap == nil {
		return errors.New("cmd: Load and Bootstrap are required")
	}
	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}

	startedAt := time.Now()
	cfg, err := opts.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("cmd: load config %s: %w", opts.ConfigPath, err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return errors.Join(fmt.Errorf("cmd: bootstrap: %w", err), shutdown())
	}
	defer func() {
		if err := shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	return run(ctx, withLifecycleLogs(runOpts, startedAt))
}

// withLifecycleLogs logs readiness after OnStart and shutdown before OnStop.
func withLifecycleLogs(opts coretelegram.RunOptions, startedAt time.Time) coretelegram.RunOptions {
	onStart, onStop := opts.OnStart, opts.OnStop
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup_duration", logger.Took(startedAt)))
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
	return opts
}
