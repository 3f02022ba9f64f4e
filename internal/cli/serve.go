package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"moneybot/internal/scheduler"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alert and digest scheduler",
		Long: `Run the alert tick on alerts.interval and the daily digest at digest.at.
Prometheus metrics and health are served on metrics.listen when enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app, NewOutput(cmd))
		},
	}
}

func runServe(ctx context.Context, app *App, output *Output) error {
	alertEngine, err := app.AlertEngine()
	if err != nil {
		return err
	}

	sched := scheduler.New(app.Metrics, app.Logger)
	sched.Add("alert_tick", scheduler.Every(app.Config.Alerts.Interval), alertEngine.RunTick)

	if app.Config.Digest.Enabled {
		job, err := app.DigestJob()
		if err != nil {
			return err
		}
		hour, minute, err := app.Config.DigestTime()
		if err != nil {
			return err
		}
		sched.Add("daily_digest", scheduler.DailyAt{Hour: hour, Minute: minute, Location: app.Config.Location()}, job.Run)
	}

	var srv *http.Server
	if app.Config.Metrics.Enabled {
		health, err := app.Health()
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		mux.Handle("/healthz", health.HealthHTTPHandler())

		srv = &http.Server{
			Addr:              app.Config.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Error().Err(err).Str("listen", srv.Addr).Msg("Metrics server failed")
			}
		}()
		output.Info("Metrics on %s/metrics", app.Config.Metrics.Listen)
	}

	if channels := app.Notifier().Channels(); len(channels) == 0 {
		output.Warning("No push channels enabled; notifications are only recorded")
	}

	sched.Start(ctx)
	output.Success("Scheduler running (alerts every %s)", app.Config.Alerts.Interval)

	<-ctx.Done()
	output.Dim("Shutting down, waiting for running jobs...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}
	sched.Stop()
	return nil
}
