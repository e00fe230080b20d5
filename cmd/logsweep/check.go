package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridops/logsweep/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check free space thresholds on configured paths",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if len(cfg.Checks.Paths) == 0 {
			slog.Warn("No check paths configured")
			return
		}
		if alerts := app.CheckSpace(cfg); alerts > 0 {
			slog.Warn("Free space checks failed", "alerts", alerts)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
