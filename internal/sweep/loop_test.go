package sweep

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeDisk backs both the probe and the remover: removing a file adds its
// size back to the reported free space, like a real filesystem would.
type fakeDisk struct {
	free       int64
	sizes      map[string]int64
	removed    []string
	failPaths  map[string]bool
	probeErr   error
	probeCalls int
	failAfter  int // probe calls before probeErr kicks in, 0 = immediately
}

func (d *fakeDisk) FreeBytes() (int64, error) {
	d.probeCalls++
	if d.probeErr != nil && d.probeCalls > d.failAfter {
		return 0, d.probeErr
	}
	return d.free, nil
}

func (d *fakeDisk) Remove(path string) error {
	if d.failPaths[path] {
		return errors.New("permission denied")
	}
	d.removed = append(d.removed, path)
	d.free += d.sizes[path]
	return nil
}

func testPlan(sizes map[string]int64, paths ...string) *Plan {
	p := &Plan{}
	for _, path := range paths {
		p.Candidates = append(p.Candidates, Candidate{
			Rule: "r",
			File: FileRecord{Path: path, Dir: "/d", Size: sizes[path], ModTime: now.Add(-48 * time.Hour)},
		})
	}
	return p
}

func TestLoopStopsWhenTargetMet(t *testing.T) {
	sizes := map[string]int64{"/d/1": 100, "/d/2": 100, "/d/3": 100}
	disk := &fakeDisk{free: 800, sizes: sizes}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}

	report, err := r.Run(context.Background(), testPlan(sizes, "/d/1", "/d/2", "/d/3"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Verdict != VerdictOK {
		t.Errorf("expected verdict ok, got %s", report.Verdict)
	}
	// 800 -> 900 -> 1000: two deletions suffice, the third file survives.
	if len(disk.removed) != 2 {
		t.Errorf("expected 2 removals, got %d (%v)", len(disk.removed), disk.removed)
	}
	if report.Deleted != 2 || report.BytesReclaimed != 200 {
		t.Errorf("unexpected report counts: %+v", report)
	}
	if report.FreeAfter != 1000 {
		t.Errorf("expected final free 1000, got %d", report.FreeAfter)
	}
}

func TestLoopZeroDeletionsWhenSpaceFine(t *testing.T) {
	sizes := map[string]int64{"/d/1": 100}
	disk := &fakeDisk{free: 5000, sizes: sizes}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}

	report, err := r.Run(context.Background(), testPlan(sizes, "/d/1"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Verdict != VerdictOK || report.Deleted != 0 || len(disk.removed) != 0 {
		t.Errorf("expected no deletions, got %+v", report)
	}
}

func TestLoopExhaustedShortOfTarget(t *testing.T) {
	sizes := map[string]int64{"/d/1": 10, "/d/2": 10}
	disk := &fakeDisk{free: 600, sizes: sizes}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}

	report, err := r.Run(context.Background(), testPlan(sizes, "/d/1", "/d/2"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Verdict != VerdictDegraded {
		t.Errorf("expected degraded, got %s", report.Verdict)
	}
	if report.Deleted != 2 {
		t.Errorf("expected the whole plan consumed, got %d", report.Deleted)
	}
}

func TestLoopCriticalBelowWarn(t *testing.T) {
	disk := &fakeDisk{free: 100, sizes: map[string]int64{}}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}

	report, err := r.Run(context.Background(), &Plan{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Verdict != VerdictCritical {
		t.Errorf("expected critical, got %s", report.Verdict)
	}
}

func TestLoopSkipsFailedRemovals(t *testing.T) {
	sizes := map[string]int64{"/d/1": 100, "/d/2": 100}
	disk := &fakeDisk{free: 800, sizes: sizes, failPaths: map[string]bool{"/d/1": true}}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 900, Warn: 500}}

	report, err := r.Run(context.Background(), testPlan(sizes, "/d/1", "/d/2"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Skipped != 1 || report.Deleted != 1 {
		t.Errorf("expected 1 skip and 1 deletion, got %+v", report)
	}
	if report.Verdict != VerdictOK {
		t.Errorf("expected ok after fallback deletion, got %s", report.Verdict)
	}
	// Initial probe plus one after the successful removal; the failed removal
	// must not trigger a re-probe.
	if disk.probeCalls != 2 {
		t.Errorf("expected 2 probe calls, got %d", disk.probeCalls)
	}
	stats := report.PerRule["r"]
	if stats.Skipped != 1 || stats.Deleted != 1 {
		t.Errorf("unexpected per-rule stats: %+v", stats)
	}
}

func TestLoopProbeFailureIsFatal(t *testing.T) {
	boom := errors.New("statfs failed")

	disk := &fakeDisk{probeErr: boom}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}
	report, err := r.Run(context.Background(), &Plan{})
	if !errors.Is(err, ErrProbeUnavailable) {
		t.Fatalf("expected ErrProbeUnavailable, got %v", err)
	}
	if report.Verdict != VerdictCritical {
		t.Errorf("expected critical verdict, got %s", report.Verdict)
	}

	// Mid-run probe failure aborts too, after the first removal.
	sizes := map[string]int64{"/d/1": 1, "/d/2": 1}
	disk = &fakeDisk{free: 0, sizes: sizes, probeErr: boom, failAfter: 1}
	r = &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}
	report, err = r.Run(context.Background(), testPlan(sizes, "/d/1", "/d/2"))
	if !errors.Is(err, ErrProbeUnavailable) {
		t.Fatalf("expected ErrProbeUnavailable mid-run, got %v", err)
	}
	if report.Verdict != VerdictCritical {
		t.Errorf("expected critical verdict, got %s", report.Verdict)
	}
	if len(disk.removed) != 1 {
		t.Errorf("expected a single removal before the abort, got %v", disk.removed)
	}
}

func TestLoopForceConsumesWholePlan(t *testing.T) {
	sizes := map[string]int64{"/d/1": 1, "/d/2": 1}
	disk := &fakeDisk{free: 10_000, sizes: sizes}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 100, Warn: 50}, Force: true}

	report, err := r.Run(context.Background(), testPlan(sizes, "/d/1", "/d/2"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Deleted != 2 {
		t.Errorf("force run should consume the whole plan, deleted %d", report.Deleted)
	}
}

func TestLoopCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sizes := map[string]int64{"/d/1": 1}
	disk := &fakeDisk{free: 0, sizes: sizes}
	r := &Reclaimer{Probe: disk, Remover: disk, Targets: SpaceTargets{KeepFree: 1000, Warn: 500}}

	report, err := r.Run(ctx, testPlan(sizes, "/d/1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(disk.removed) != 0 {
		t.Errorf("cancelled run must not remove files, got %v", disk.removed)
	}
	if report.Verdict != VerdictCritical {
		t.Errorf("expected critical verdict at free=0, got %s", report.Verdict)
	}
}
