package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"moneybot/internal/config"
	"moneybot/internal/logging"
	"moneybot/internal/metrics"
	"moneybot/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "moneybot",
		Short: "Conversational bookkeeping and price alerts",
		Long: `moneybot records income and expenses from short chat messages,
tracks a stock portfolio and watches prices for alerts.

Use 'moneybot chat --user <id>' to talk to the assistant from a terminal
and 'moneybot serve' to run the alert and digest scheduler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := logging.DefaultLogConfig()
			logCfg.Level = cfg.Logging.Level
			logCfg.Console = cfg.Logging.Console
			logCfg.File = cfg.Logging.File
			logCfg.FilePath = filepath.Join(dir, "logs", "moneybot.log")
			app.Logger = logging.NewLoggerWithConfig(logCfg)

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			app.Metrics = metrics.New()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/moneybot)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newChatCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
	rootCmd.AddCommand(newDigestCmd(app))
	rootCmd.AddCommand(newNotificationsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
				return
			}
			output.Printf("moneybot v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(maskedConfig(app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			NewOutput(cmd).Println(dir)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	masked.Credentials.Kite.APIKey = security.MaskCredential(cfg.Credentials.Kite.APIKey)
	masked.Credentials.Kite.AccessToken = security.MaskCredential(cfg.Credentials.Kite.AccessToken)
	masked.Credentials.Telegram.BotToken = security.MaskCredential(cfg.Credentials.Telegram.BotToken)
	return masked
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine")
	output.Printf("  Timezone:        %s\n", cfg.Engine.Timezone)
	output.Printf("  Quote timeout:   %s\n", cfg.Engine.QuoteTimeout)
	output.Printf("  History window:  %d entries\n", cfg.Engine.HistoryWindow)
	output.Printf("  Website:         %s\n", cfg.Engine.WebsiteURL)
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Interval:        %s\n", cfg.Alerts.Interval)
	output.Printf("  Concurrency:     %d\n", cfg.Alerts.Concurrency)
	output.Printf("  Defaults:        daily %.1f%%  take-profit %.1f%%  stop-loss %.1f%%\n",
		cfg.Alerts.DefaultDailyChange, cfg.Alerts.DefaultStopProfit, cfg.Alerts.DefaultStopLoss)
	output.Println()

	output.Bold("Digest")
	output.Printf("  Enabled:         %v\n", cfg.Digest.Enabled)
	output.Printf("  At:              %s\n", cfg.Digest.At)
	output.Println()

	output.Bold("Market")
	output.Printf("  Provider:        %s (%s)\n", cfg.Market.Provider, cfg.Market.Exchange)
	output.Printf("  Retries:         %d\n", cfg.Market.Retries)
	output.Printf("  Breaker:         %d failures, %s cooldown\n", cfg.Market.FailureThreshold, cfg.Market.Cooldown)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)
	output.Printf("  Telegram:        %v\n", cfg.Notifications.Telegram.Enabled)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:        %s\n", cfg.Storage.Path)
}
