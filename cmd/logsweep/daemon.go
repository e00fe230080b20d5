package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gridops/logsweep/internal/app"
	"github.com/gridops/logsweep/internal/errutil"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run reclamation passes on a cron schedule",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		schedule, err := cmd.Flags().GetString("schedule")
		if err != nil {
			errutil.ReportError(err, "Failed to get schedule flag")
			os.Exit(1)
		}
		if schedule == "" {
			schedule = cfg.Schedule
		}
		if schedule == "" {
			slog.Error("No schedule configured; set `schedule` in the config or pass --schedule")
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// A run still in progress skips the next tick instead of stacking up.
		var running atomic.Bool
		c := cron.New()
		_, err = c.AddFunc(schedule, func() {
			if !running.CompareAndSwap(false, true) {
				slog.Warn("Previous reclamation run still in progress, skipping tick")
				return
			}
			defer running.Store(false)

			report, err := app.Clean(ctx, cfg, app.Options{})
			if err != nil {
				errutil.ReportError(err, "Scheduled reclamation run failed")
				return
			}
			slog.Info("Scheduled reclamation finished",
				"verdict", report.Verdict.String(),
				"deleted", report.Deleted,
				"bytes_reclaimed", report.BytesReclaimed,
				"free", report.FreeAfter)
		})
		if err != nil {
			errutil.ReportError(err, "Invalid cron schedule", "schedule", schedule)
			os.Exit(1)
		}

		slog.Info("Reclamation daemon started", "schedule", schedule, "base_path", cfg.BasePath)
		c.Start()
		<-ctx.Done()
		slog.Info("Shutting down, waiting for running jobs")
		<-c.Stop().Done()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().String("schedule", "", "Cron schedule (overrides the config)")
}
