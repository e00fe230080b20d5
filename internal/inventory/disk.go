package inventory

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
)

// DiskProbe reads free-space statistics for the filesystem holding Path.
// It implements sweep.Prober.
type DiskProbe struct {
	Path string
}

// FreeBytes returns the bytes available to unprivileged users.
func (p *DiskProbe) FreeBytes() (int64, error) {
	free, _, err := p.stat()
	return free, err
}

// Stats returns free and total bytes, for threshold checks.
func (p *DiskProbe) Stats() (free, total int64, err error) {
	return p.stat()
}

func (p *DiskProbe) stat() (int64, int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(p.Path, &stat); err != nil {
		return 0, 0, fmt.Errorf("failed to check disk space for %s: %w", p.Path, err)
	}
	free := int64(stat.Bavail) * int64(stat.Bsize)
	total := int64(stat.Blocks) * int64(stat.Bsize)
	return free, total, nil
}

// Remover deletes files with os.Remove. It implements sweep.Remover.
type Remover struct{}

func (Remover) Remove(path string) error {
	return os.Remove(path)
}

// DryRunRemover logs what would be removed and touches nothing.
type DryRunRemover struct{}

func (DryRunRemover) Remove(path string) error {
	slog.Info("Would remove file (dry run)", "path", path)
	return nil
}
