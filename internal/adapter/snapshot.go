// Package adapter holds the output-file detection protocol shared by every
// ToolAdapter implementation and the concrete adapters themselves, one
// subpackage per tool family.
package adapter

import (
	"os"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Snapshot is a (path -> mtime) map taken before or after a tool run. Output
// patterns are absolute globs, possibly containing "**"; filepath.Glob can't
// do that, so matching uses doublestar against the OS filesystem.
type Snapshot map[string]time.Time

// TakeSnapshot stats every file matching any of patterns (absolute globs,
// "**" allowed) and records its mtime: the "before" half of output-file
// detection.
func TakeSnapshot(patterns []string) (Snapshot, error) {
	snap := make(Snapshot)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			continue // malformed pattern: no matches, not a hard failure
		}
		for _, m := range matches {
			stat, err := os.Stat(m)
			if err != nil || stat.IsDir() {
				continue
			}
			snap[m] = stat.ModTime()
		}
	}

	return snap, nil
}

// DiffSnapshots returns the produced artifact set: paths present only in
// after, plus paths whose mtime strictly increased between before and
// after. This tolerates tools that overwrite pre-existing outputs in place.
func DiffSnapshots(before, after Snapshot) []string {
	var produced []string

	for path, afterMtime := range after {
		beforeMtime, existed := before[path]
		if !existed || afterMtime.After(beforeMtime) {
			produced = append(produced, path)
		}
	}

	sort.Strings(produced)
	return produced
}
