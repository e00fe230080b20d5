package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrProbeUnavailable is returned when free-space statistics cannot be read.
// Without the probe the stopping condition is unknowable, so the run aborts.
var ErrProbeUnavailable = errors.New("free space probe unavailable")

// Prober reports current free bytes on the target filesystem.
type Prober interface {
	FreeBytes() (int64, error)
}

// Remover deletes a single file. Implementations may be dry-run.
type Remover interface {
	Remove(path string) error
}

// Reclaimer drives a deletion plan against a live free-space check.
type Reclaimer struct {
	Probe   Prober
	Remover Remover
	Targets SpaceTargets

	// Force consumes the entire plan even once the target is met.
	Force bool
}

// Run consumes the plan file by file until free space reaches the keep-free
// target or the plan is exhausted. Each successful removal is followed by a
// re-probe; removal failures are skipped without one. The returned report
// always carries a verdict, even when the run aborts on a probe error.
func (r *Reclaimer) Run(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{PerRule: make(map[string]RuleStats)}

	free, err := r.Probe.FreeBytes()
	if err != nil {
		report.Verdict = VerdictCritical
		return report, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	report.FreeBefore = free
	report.FreeAfter = free

	for _, c := range plan.Candidates {
		if !r.Force && free >= r.Targets.KeepFree {
			break
		}
		if err := ctx.Err(); err != nil {
			report.Verdict = verdictFor(free, r.Targets)
			return report, err
		}

		stats := report.PerRule[c.Rule]
		if err := r.Remover.Remove(c.File.Path); err != nil {
			// Vanished or unremovable files are skipped, not fatal. The free
			// space did not change, so there is nothing to re-probe.
			slog.Warn("Failed to remove file",
				"rule", c.Rule, "path", c.File.Path, "error", err)
			report.Skipped++
			stats.Skipped++
			report.PerRule[c.Rule] = stats
			continue
		}

		report.Deleted++
		report.BytesReclaimed += c.File.Size
		report.Deletions = append(report.Deletions, c)
		stats.Deleted++
		stats.Bytes += c.File.Size
		report.PerRule[c.Rule] = stats
		slog.Debug("Removed file",
			"rule", c.Rule, "path", c.File.Path, "size", c.File.Size,
			"deficit", r.Targets.KeepFree-free)

		free, err = r.Probe.FreeBytes()
		if err != nil {
			report.Verdict = VerdictCritical
			return report, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
		}
		report.FreeAfter = free
	}

	report.Verdict = verdictFor(free, r.Targets)
	return report, nil
}
