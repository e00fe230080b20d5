package sweep

import (
	"sort"
	"time"
)

// Filter reduces a pattern group to its eligible set as of now.
//
// Protection is layered: files younger than the rule's staleness window are
// never eligible, then each directory keeps its KeepPerDir newest survivors,
// then the rule keeps its KeepGlobal newest survivors across directories.
// A floor larger than the number of available files protects all of them.
func Filter(group PatternGroup, now time.Time) EligibleSet {
	rule := group.Rule
	cutoff := now.Add(-rule.Stale)

	byDir := make(map[string][]FileRecord)
	for _, f := range group.Files {
		// Staleness floor: mtime after the cutoff means too young.
		if f.ModTime.After(cutoff) {
			continue
		}
		byDir[f.Dir] = append(byDir[f.Dir], f)
	}

	var survivors []FileRecord
	for dir, files := range byDir {
		sortOldestFirst(files)
		if rule.KeepPerDir > 0 {
			keep := rule.KeepPerDir
			if keep > len(files) {
				keep = len(files)
			}
			files = files[:len(files)-keep]
		}
		byDir[dir] = files
		survivors = append(survivors, files...)
	}

	if rule.KeepGlobal > 0 && len(survivors) > 0 {
		// The global floor protects the newest survivors regardless of
		// which directory they live in.
		sortOldestFirst(survivors)
		keep := rule.KeepGlobal
		if keep > len(survivors) {
			keep = len(survivors)
		}
		protected := make(map[string]bool, keep)
		for _, f := range survivors[len(survivors)-keep:] {
			protected[f.Path] = true
		}
		for dir, files := range byDir {
			kept := files[:0]
			for _, f := range files {
				if !protected[f.Path] {
					kept = append(kept, f)
				}
			}
			byDir[dir] = kept
		}
	}

	set := EligibleSet{Rule: rule}
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		if len(byDir[dir]) > 0 {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		set.Dirs = append(set.Dirs, DirCandidates{Dir: dir, Files: byDir[dir]})
		set.Total += len(byDir[dir])
	}
	return set
}

// sortOldestFirst orders files by mtime ascending, ties by path so the order
// is stable across runs.
func sortOldestFirst(files []FileRecord) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
}
