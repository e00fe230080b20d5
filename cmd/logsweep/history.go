package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gridops/logsweep/internal/errutil"
	"github.com/gridops/logsweep/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent reclamation runs from the audit journal",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if cfg.Journal == "" {
			slog.Error("No audit journal configured; set `journal` in the config")
			os.Exit(1)
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			errutil.ReportError(err, "Failed to get limit flag")
			os.Exit(1)
		}

		j, err := journal.Open(cfg.Journal)
		if err != nil {
			errutil.ReportError(err, "Failed to open audit journal", "path", cfg.Journal)
			os.Exit(1)
		}
		defer func() {
			errutil.LogMsg(j.Close(), "Failed to close audit journal")
		}()

		runs, err := j.RecentRuns(cmd.Context(), limit)
		if err != nil {
			errutil.ReportError(err, "Failed to query audit journal")
			os.Exit(1)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  verdict=%s deleted=%d skipped=%d reclaimed=%s free=%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.ID,
				r.Verdict, r.FilesDeleted, r.FilesSkipped,
				humanize.IBytes(uint64(r.BytesReclaimed)),
				humanize.IBytes(uint64(r.FreeAfter)))
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
}
