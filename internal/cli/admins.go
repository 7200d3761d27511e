package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m3rciful/voicequotes/internal/admins"
)

var adminsCmd = &cobra.Command{
	Use:   "admins",
	Short: "Manage the admin registry",
}

var adminsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List admins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, closeApp, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		entries, err := a.Admins.ListAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing admins: %w", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER ID\tUSERNAME\tADDED")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.UserID, e.Username, e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var adminsAddCmd = &cobra.Command{
	Use:   "add <user-id> [username]",
	Short: "Promote a Telegram user to admin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		entry := admins.Entry{UserID: id}
		if len(args) == 2 {
			entry.Username = args[1]
		}

		a, closeApp, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.Admins.Add(cmd.Context(), entry); err != nil {
			return fmt.Errorf("adding admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %d added\n", id)
		return nil
	},
}

var adminsRemoveCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "Remove an admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		a, closeApp, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.Admins.Remove(cmd.Context(), id); err != nil {
			return fmt.Errorf("removing admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %d removed\n", id)
		return nil
	},
}

func init() {
	adminsCmd.AddCommand(adminsListCmd, adminsAddCmd, adminsRemoveCmd)
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
