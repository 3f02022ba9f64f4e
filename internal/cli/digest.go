package cli

import (
	"github.com/spf13/cobra"

	"moneybot/internal/notify"
)

func newDigestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Daily summary",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Send today's digest now",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			app.Notifier().AddChannel(notify.NewTerminalNotifier(cmd.OutOrStdout(), false))

			job, err := app.DigestJob()
			if err != nil {
				return err
			}
			sent, err := job.Run(cmd.Context())
			if err != nil {
				output.Warning("Some digests failed: %v", err)
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"sent": sent})
			}
			output.Success("Digest sent to %d user(s)", sent)
			return err
		},
	})
	return cmd
}

func newNotificationsCmd(app *App) *cobra.Command {
	var (
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show a user's recorded notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.Store()
			if err != nil {
				return err
			}
			list, err := st.ListNotifications(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Dim("No notifications")
				return nil
			}
			loc := app.Config.Location()
			table := NewTable(output, "TIME", "KIND", "TITLE")
			for _, n := range list {
				table.AddRow(FormatDateTime(n.CreatedAt, loc), string(n.Kind), TruncateString(n.Title, 50))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum notifications to show")
	cmd.MarkFlagRequired("user")
	return cmd
}
