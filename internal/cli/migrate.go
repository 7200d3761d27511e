package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/voicequotes/core/database"
	"github.com/m3rciful/voicequotes/core/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logger.InitLogger(&cfg.Config); err != nil {
			return fmt.Errorf("logger init failed: %w", err)
		}
		defer func() { _ = logger.Shutdown() }()

		db, err := coredatabase.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := coredatabase.Migrate(cmd.Context(), db, cfg.Database.MigrationsDir); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
