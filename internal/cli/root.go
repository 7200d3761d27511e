// Package cli defines the quotebot commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/voicequotes/core/buildinfo"
	"github.com/m3rciful/voicequotes/core/cmd"
	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/internal/app"
	"github.com/m3rciful/voicequotes/internal/config"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "quotebot",
	Short:         "Telegram bot that publishes and searches voice quotes",
	Version:       buildinfo.String(),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

// Execute runs the root command. Called from main.
// Commands stop on SIGINT or SIGTERM through the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminsCmd)
	rootCmd.AddCommand(sweepCmd)
}

func loadConfig() (*config.Config, error) {
	path, err := cmd.ResolveConfigPath(configPath, configEnvVar, defaultConfigPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// openApp loads the config and opens storage for one-shot commands.
// The returned func closes storage and flushes the logger.
func openApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		_ = logger.Shutdown()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close()
		_ = logger.Shutdown()
	}, nil
}
