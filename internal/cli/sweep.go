package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/voicequotes/internal/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete channel posts that never received a caption",
	Long: `Runs one reconciliation pass over the pending broadcast journal.
Without the Redis session mirror the running bot's sessions are not visible,
so only run it while the bot is stopped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, closeApp, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		if !a.Config().Redis.Enabled() {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: redis mirror disabled, live sessions are not visible")
		}

		api, err := tele.NewBot(tele.Settings{Token: a.Config().Telegram.Token, Offline: true})
		if err != nil {
			return fmt.Errorf("telegram client: %w", err)
		}
		bot := app.NewBot(a)
		defer bot.Close()
		bot.BindChannel(api)

		rep, err := bot.Reconciler().Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d, kept %d, deleted %d, resolved %d, failed %d\n",
			rep.Checked, rep.Kept, rep.Deleted, rep.Resolved, rep.Failed)
		return nil
	},
}
