package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridops/logsweep/internal/config"
	"github.com/gridops/logsweep/internal/errutil"
	"github.com/gridops/logsweep/internal/inventory"
	"github.com/gridops/logsweep/internal/journal"
	"github.com/gridops/logsweep/internal/sweep"
)

// Options are the per-invocation switches of a reclamation run.
type Options struct {
	// Force consumes every eligible candidate even if space is fine.
	Force bool

	// DryRun plans and logs but never deletes.
	DryRun bool
}

// Clean performs one full reclamation run: probe, scan, filter, schedule,
// reclaim, journal. The returned report always carries a verdict; the error
// is non-nil only for run-fatal conditions (unreadable free-space
// statistics, cancellation).
func Clean(ctx context.Context, cfg *config.Config, opts Options) (*sweep.Report, error) {
	started := time.Now()
	probe := &inventory.DiskProbe{Path: cfg.BasePath}

	// Nothing to do when space is already fine: skip the scan entirely.
	if !opts.Force {
		free, err := probe.FreeBytes()
		if err != nil {
			return &sweep.Report{Verdict: sweep.VerdictCritical},
				fmt.Errorf("%w: %v", sweep.ErrProbeUnavailable, err)
		}
		if free >= cfg.Space.KeepFree {
			slog.Debug("Free space target already met",
				"free", free, "keep_free", cfg.Space.KeepFree)
			return &sweep.Report{
				Verdict:    sweep.VerdictOK,
				FreeBefore: free,
				FreeAfter:  free,
				PerRule:    map[string]sweep.RuleStats{},
			}, nil
		}
	}

	scanner := &inventory.Scanner{}
	groups := scanner.Scan(ctx, cfg.Rules)

	now := time.Now()
	sets := make([]sweep.EligibleSet, 0, len(groups))
	for _, g := range groups {
		set := sweep.Filter(g, now)
		slog.Debug("Filtered rule inventory",
			"rule", g.Rule.Name, "matched", len(g.Files), "eligible", set.Total)
		sets = append(sets, set)
	}
	plan := sweep.Schedule(sets)
	slog.Debug("Deletion plan built", "candidates", plan.Len())

	var remover sweep.Remover = inventory.Remover{}
	if opts.DryRun {
		remover = inventory.DryRunRemover{}
	}

	reclaimer := &sweep.Reclaimer{
		Probe:   probe,
		Remover: remover,
		Targets: cfg.Space,
		Force:   opts.Force,
	}
	report, err := reclaimer.Run(ctx, plan)

	if cfg.Journal != "" && !opts.DryRun {
		recordRun(ctx, cfg.Journal, started, report)
	}
	return report, err
}

// recordRun writes the run to the audit journal. Journal trouble is logged
// and otherwise ignored; auditing never fails a reclamation.
func recordRun(ctx context.Context, path string, started time.Time, report *sweep.Report) {
	j, err := journal.Open(path)
	if err != nil {
		errutil.ReportError(err, "Failed to open audit journal", "path", path)
		return
	}
	defer func() {
		errutil.LogMsg(j.Close(), "Failed to close audit journal")
	}()

	if _, err := j.RecordRun(ctx, started, time.Now(), report); err != nil {
		errutil.ReportError(err, "Failed to record run in audit journal")
	}
}

// CheckSpace evaluates every configured mount against its free-fraction
// threshold and returns the number of alerts.
func CheckSpace(cfg *config.Config) int {
	alerts := 0
	for _, cp := range cfg.Checks.Paths {
		probe := &inventory.DiskProbe{Path: cp.Path}
		free, total, err := probe.Stats()
		if err != nil {
			slog.Error("Free space check failed", "name", cp.Name, "path", cp.Path, "error", err)
			alerts++
			continue
		}
		fraction := float64(free) / float64(total)
		if fraction < cp.Threshold {
			slog.Error("Free space alert",
				"name", cp.Name, "path", cp.Path,
				"free", free, "total", total,
				"free_fraction", fraction, "threshold", cp.Threshold)
			alerts++
			continue
		}
		slog.Debug("Free space ok",
			"name", cp.Name, "path", cp.Path,
			"free", free, "total", total,
			"free_fraction", fraction, "threshold", cp.Threshold)
	}
	return alerts
}
