package inventory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gridops/logsweep/internal/sweep"
)

// Scanner builds pattern groups by expanding rule globs against the live
// filesystem. The expansion happens once per run; the resulting records are a
// snapshot and are never re-stated.
type Scanner struct{}

// Scan expands every rule concurrently. A rule whose expansion fails is
// degraded to an empty group with a warning; it contributes nothing to the
// run but never aborts it. The returned groups preserve rule order.
func (s *Scanner) Scan(ctx context.Context, rules []sweep.Rule) []sweep.PatternGroup {
	groups := make([]sweep.PatternGroup, len(rules))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, rule := range rules {
		g.Go(func() error {
			files, err := expand(rule.Globs)
			if err != nil {
				slog.Warn("Inventory scan failed, skipping rule",
					"rule", rule.Name, "error", err)
				files = nil
			}
			mu.Lock()
			groups[i] = sweep.PatternGroup{Rule: rule, Files: files}
			mu.Unlock()
			return ctx.Err()
		})
	}
	// Scan errors degrade individual rules; only context cancellation
	// surfaces here, and a cancelled scan still returns what it has.
	if err := g.Wait(); err != nil {
		slog.Warn("Inventory scan interrupted", "error", err)
	}
	return groups
}

func expand(globs []string) ([]sweep.FileRecord, error) {
	var files []sweep.FileRecord
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				// Matched but vanished before stat: treat as gone.
				continue
			}
			if info.IsDir() {
				continue
			}
			files = append(files, sweep.FileRecord{
				Path:    path,
				Dir:     filepath.Dir(path),
				ModTime: info.ModTime(),
				Size:    info.Size(),
			})
		}
	}
	return files, nil
}
