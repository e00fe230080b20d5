package sweep

import (
	"time"
)

// Rule is one named retention policy from the cleanup configuration.
type Rule struct {
	// Name identifies the rule in logs and reports.
	Name string

	// Globs are the file patterns, already resolved relative to the base path.
	Globs []string

	// Stale is the minimum age before a file becomes eligible for deletion.
	Stale time.Duration

	// KeepPerDir is the number of newest eligible files preserved in each
	// directory. Zero means no per-directory floor.
	KeepPerDir int

	// KeepGlobal is the number of newest eligible files preserved across all
	// directories matched by this rule. Zero means no global floor.
	KeepGlobal int

	// Importance weights the rule against others under space pressure.
	// Must be positive; rules default to 1.
	Importance float64
}

// FileRecord is a single matched file, snapshotted once per run.
// The scheduler never re-stats a file; mtime and size are whatever the
// inventory scan observed.
type FileRecord struct {
	Path    string
	Dir     string
	ModTime time.Time
	Size    int64
}

// PatternGroup binds a rule to its matched files, partitioned by directory.
type PatternGroup struct {
	Rule  Rule
	Files []FileRecord
}

// DirCandidates is the oldest-first sequence of deletable files in one
// directory, after all floors were applied.
type DirCandidates struct {
	Dir   string
	Files []FileRecord
}

// EligibleSet is the filtered view of one pattern group: per directory, the
// oldest-first files that may be deleted, plus the total across directories.
type EligibleSet struct {
	Rule  Rule
	Dirs  []DirCandidates
	Total int
}

// Candidate is one entry of a deletion plan: a file and the rule that
// scheduled it.
type Candidate struct {
	File FileRecord
	Rule string
}

// Plan is the total deletion order produced by the scheduler. The reclamation
// loop consumes it front to back and may stop at any prefix.
type Plan struct {
	Candidates []Candidate
}

// Len returns the number of scheduled deletions.
func (p *Plan) Len() int { return len(p.Candidates) }

// SpaceTargets are the free-space thresholds for one filesystem.
type SpaceTargets struct {
	// KeepFree is the amount of free bytes the loop tries to reach.
	KeepFree int64

	// Warn is the severity threshold: ending below it makes the verdict
	// critical rather than degraded.
	Warn int64
}

// Verdict classifies the end state of a reclamation run.
type Verdict int

const (
	// VerdictOK means free space ended at or above the keep-free target.
	VerdictOK Verdict = iota

	// VerdictDegraded means the plan was exhausted short of the target but
	// free space is still above the warn threshold.
	VerdictDegraded

	// VerdictCritical means free space ended below the warn threshold, or the
	// free-space probe failed mid-run.
	VerdictCritical
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictDegraded:
		return "degraded"
	case VerdictCritical:
		return "critical"
	}
	return "unknown"
}

// RuleStats counts what one rule contributed to a run.
type RuleStats struct {
	Deleted int
	Skipped int
	Bytes   int64
}

// Report is the outcome of one reclamation run.
type Report struct {
	Verdict        Verdict
	FreeBefore     int64
	FreeAfter      int64
	Deleted        int
	Skipped        int
	BytesReclaimed int64
	PerRule        map[string]RuleStats
	Deletions      []Candidate
}

// verdictFor maps a final free-byte value onto the verdict scale.
func verdictFor(free int64, targets SpaceTargets) Verdict {
	switch {
	case free >= targets.KeepFree:
		return VerdictOK
	case free >= targets.Warn:
		return VerdictDegraded
	default:
		return VerdictCritical
	}
}
