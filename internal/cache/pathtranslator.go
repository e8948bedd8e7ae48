package cache

import (
	"path/filepath"
	"sort"
	"strings"
)

// TranslatePaths rewrites absolute paths embedded in captured stdout/stderr
// text from oldRepoRoot to newRepoRoot, for exactly the repo-relative paths
// the caller already knows about (main file, dependencies, artifacts). It is
// deliberately a heuristic over known paths only: free text mentioning
// unrelated system paths is left untouched.
func TranslatePaths(text, oldRepoRoot, newRepoRoot string, trackedPaths []RepoPath) string {
	if text == "" || oldRepoRoot == newRepoRoot {
		return text
	}

	type mapping struct{ oldAbs, newAbs string }
	mappings := make([]mapping, 0, len(trackedPaths))

	seen := make(map[string]bool, len(trackedPaths))
	for _, p := range trackedPaths {
		rel := p.String()
		if seen[rel] {
			continue
		}
		seen[rel] = true

		mappings = append(mappings, mapping{
			oldAbs: filepath.Join(oldRepoRoot, filepath.FromSlash(rel)),
			newAbs: filepath.Join(newRepoRoot, filepath.FromSlash(rel)),
		})
	}

	// Replace longer paths first so a dependency's path never gets
	// partially clobbered by a prefix match from a shorter one.
	sort.Slice(mappings, func(i, j int) bool {
		return len(mappings[i].oldAbs) > len(mappings[j].oldAbs)
	})

	result := text
	for _, m := range mappings {
		result = strings.ReplaceAll(result, m.oldAbs, m.newAbs)
	}
	return result
}
