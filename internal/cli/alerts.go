package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"moneybot/internal/models"
	"moneybot/internal/notify"
)

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage and evaluate price alerts",
	}

	cmd.AddCommand(newAlertsTickCmd(app))
	cmd.AddCommand(newAlertsAddCmd(app))
	cmd.AddCommand(newAlertsListCmd(app))
	cmd.AddCommand(newAlertsDefaultsCmd(app))
	cmd.AddCommand(newAlertsToggleCmd(app, "enable", true))
	cmd.AddCommand(newAlertsToggleCmd(app, "disable", false))
	cmd.AddCommand(newAlertsDeleteCmd(app))
	return cmd
}

func newAlertsTickCmd(app *App) *cobra.Command {
	var bell bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Evaluate every active alert once",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			app.Notifier().AddChannel(notify.NewTerminalNotifier(cmd.OutOrStdout(), bell))

			engine, err := app.AlertEngine()
			if err != nil {
				return err
			}
			fired, err := engine.RunTick(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"fired": fired})
			}
			output.Success("%d alert(s) fired", fired)
			return nil
		},
	}
	cmd.Flags().BoolVar(&bell, "bell", false, "ring the terminal bell for fired alerts")
	return cmd
}

func newAlertsAddCmd(app *App) *cobra.Command {
	var (
		userID, symbol, alertType, direction string
		threshold, target, reference         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a price alert",
		Example: `  moneybot alerts add -u alice -s TSLA -t TARGET_PRICE --target 300
  moneybot alerts add -u alice -s INFY -t DAILY_CHANGE --threshold 3 --direction DOWN
  moneybot alerts add -u alice -s TSLA -t STOP_LOSS --threshold 10 --reference 250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			t, err := models.ParseAlertType(alertType)
			if err != nil {
				return err
			}
			a := &models.PriceAlert{UserID: userID, Symbol: symbol, Type: t}
			if a.Threshold, err = parseOptionalDecimal("threshold", threshold); err != nil {
				return err
			}
			if a.TargetPrice, err = parseOptionalDecimal("target", target); err != nil {
				return err
			}
			if a.ReferencePrice, err = parseOptionalDecimal("reference", reference); err != nil {
				return err
			}
			if t == models.AlertDailyChange {
				if a.Direction, err = models.ParseAlertDirection(direction); err != nil {
					return err
				}
			}

			svc, err := app.AlertService()
			if err != nil {
				return err
			}
			if err := svc.Create(cmd.Context(), a); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(a)
			}
			output.Success("Created alert %s: %s", a.ID, a.Describe())
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "owner user ID")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "stock symbol")
	cmd.Flags().StringVarP(&alertType, "type", "t", "", "DAILY_CHANGE, PROFIT_LOSS, STOP_PROFIT, STOP_LOSS or TARGET_PRICE")
	cmd.Flags().StringVar(&threshold, "threshold", "", "threshold in percent")
	cmd.Flags().StringVar(&target, "target", "", "target price (TARGET_PRICE)")
	cmd.Flags().StringVar(&reference, "reference", "", "reference price (PROFIT_LOSS, STOP_PROFIT, STOP_LOSS)")
	cmd.Flags().StringVar(&direction, "direction", "BOTH", "UP, DOWN or BOTH (DAILY_CHANGE)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("type")
	return cmd
}

func parseOptionalDecimal(name, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func newAlertsListCmd(app *App) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.AlertService()
			if err != nil {
				return err
			}
			list, err := svc.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			renderAlerts(output, list, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "owner user ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

func renderAlerts(output *Output, list []models.PriceAlert, now time.Time) {
	if len(list) == 0 {
		output.Dim("No alerts")
		return
	}
	table := NewTable(output, "ID", "CONDITION", "ACTIVE", "FIRED", "LAST")
	for _, a := range list {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		table.AddRow(a.ID, TruncateString(a.Describe(), 40), active, fmt.Sprint(a.TriggerCount), FormatAgo(a.LastTriggered, now))
	}
	table.Render()
}

func newAlertsDefaultsCmd(app *App) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Create the default alerts for each holding",
		Long: `Create a daily-move, take-profit and stop-loss alert for every holding,
measured from the average cost. Alert types a symbol already has are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.AlertService()
			if err != nil {
				return err
			}
			created, err := svc.GenerateDefaults(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(created)
			}
			for _, a := range created {
				output.Printf("  %s\n", a.Describe())
			}
			output.Success("%d alert(s) created", len(created))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "owner user ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newAlertsToggleCmd(app *App, use string, active bool) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   use + " <alert-id>",
		Short: fmt.Sprintf("%s an alert", map[bool]string{true: "Enable", false: "Disable"}[active]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.AlertService()
			if err != nil {
				return err
			}
			if err := svc.SetActive(cmd.Context(), userID, args[0], active); err != nil {
				return err
			}
			NewOutput(cmd).Success("Alert %s %sd", args[0], use)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "owner user ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newAlertsDeleteCmd(app *App) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "delete <alert-id>",
		Short: "Delete an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.AlertService()
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), userID, args[0]); err != nil {
				return err
			}
			NewOutput(cmd).Success("Alert %s deleted", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "owner user ID")
	cmd.MarkFlagRequired("user")
	return cmd
}
