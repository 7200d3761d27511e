package cli

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/voicequotes/core/cmd"
	"github.com/m3rciful/voicequotes/internal/app"
	"github.com/m3rciful/voicequotes/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until interrupted",
	RunE:  runServe,
}

func runServe(c *cobra.Command, _ []string) error {
	path, err := cmd.ResolveConfigPath(configPath, configEnvVar, defaultConfigPath)
	if err != nil {
		return err
	}
	return cmd.Run(c.Context(), cmd.Options{
		ConfigPath: path,
		Load: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: app.Bootstrap,
	})
}
