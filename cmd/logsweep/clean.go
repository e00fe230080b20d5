package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridops/logsweep/internal/app"
	"github.com/gridops/logsweep/internal/errutil"
	"github.com/gridops/logsweep/internal/sweep"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run one space reclamation pass",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			errutil.ReportError(err, "Failed to get force flag")
			os.Exit(1)
		}
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			errutil.ReportError(err, "Failed to get dry-run flag")
			os.Exit(1)
		}

		report, err := app.Clean(cmd.Context(), cfg, app.Options{Force: force, DryRun: dryRun})
		if err != nil {
			errutil.ReportError(err, "Reclamation run failed", "verdict", report.Verdict.String())
			os.Exit(1)
		}

		slog.Info("Reclamation finished",
			"verdict", report.Verdict.String(),
			"deleted", report.Deleted,
			"skipped", report.Skipped,
			"bytes_reclaimed", report.BytesReclaimed,
			"free", report.FreeAfter,
			"keep_free", cfg.Space.KeepFree)
		for rule, stats := range report.PerRule {
			slog.Debug("Rule totals",
				"rule", rule, "deleted", stats.Deleted,
				"skipped", stats.Skipped, "bytes", stats.Bytes)
		}

		if report.Verdict != sweep.VerdictOK {
			slog.Warn("Free space below target after cleanup",
				"free", report.FreeAfter,
				"keep_free", cfg.Space.KeepFree,
				"warn", cfg.Space.Warn)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolP("force", "f", false, "Perform all possible cleanups even if there is enough space")
	cleanCmd.Flags().Bool("dry-run", false, "Don't actually remove any of the files")
}
