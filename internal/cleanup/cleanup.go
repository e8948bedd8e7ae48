// Package cleanup implements the cache-maintenance operations exposed by
// cachectl: per-repo statistics and filtered deletion. It only ever consumes
// the on-disk contract (folder_index.json, metadata.json); the engine itself
// never deletes anything.
package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// entryMetadata mirrors the subset of cache.entryMetadata cleanup needs to
// read back off disk; it is a standalone decode so this package never
// depends on internal/cache's in-process types.
type entryMetadata struct {
	ToolName string `json:"tool_name"`
	RepoDir  string `json:"repo_dir"`
}

// Entry is one entry_NNNNNN directory discovered under the cache root.
type Entry struct {
	Dir        string
	CompoundID string // compound-key folder name, e.g. the parent of Dir
	CacheKey   string // entry_NNNNNN
	ToolName   string
	RepoDir    string
	Age        time.Duration
	SizeBytes  int64
}

// RepoStats aggregates Entries sharing the same RepoDir.
type RepoStats struct {
	RepoDir    string
	EntryCount int
	TotalSize  int64
	OldestAge  time.Duration
	NewestAge  time.Duration
}

// Cleanup operates against a single cache root directory.
type Cleanup struct {
	CacheDir string
}

func New(cacheDir string) *Cleanup {
	return &Cleanup{CacheDir: cacheDir}
}

// IterEntries walks every entry_NNNNNN directory under every compound-key
// folder, skipping anything that doesn't look like a valid entry. A
// corrupted metadata.json is reported to stderr and skipped, never fatal.
func (c *Cleanup) IterEntries() []Entry {
	var entries []Entry

	folders, err := os.ReadDir(c.CacheDir)
	if err != nil {
		return nil
	}

	now := time.Now()

	for _, folder := range folders {
		if !folder.IsDir() || folder.Name() == ".lock" {
			continue
		}
		compoundDir := filepath.Join(c.CacheDir, folder.Name())

		entryDirs, err := os.ReadDir(compoundDir)
		if err != nil {
			continue
		}

		for _, entryDir := range entryDirs {
			if !entryDir.IsDir() || !strings.HasPrefix(entryDir.Name(), "entry_") {
				continue
			}

			fullDir := filepath.Join(compoundDir, entryDir.Name())
			metaPath := filepath.Join(fullDir, "metadata.json")
			stat, err := os.Stat(metaPath)
			if err != nil {
				continue
			}

			data, err := os.ReadFile(metaPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: skipping corrupted cache entry %s: %v\n", fullDir, err)
				continue
			}
			var meta entryMetadata
			if err := json.Unmarshal(data, &meta); err != nil {
				fmt.Fprintf(os.Stderr, "warning: skipping corrupted cache entry %s: %v\n", fullDir, err)
				continue
			}

			entries = append(entries, Entry{
				Dir:        fullDir,
				CompoundID: folder.Name(),
				CacheKey:   entryDir.Name(),
				ToolName:   meta.ToolName,
				RepoDir:    meta.RepoDir,
				Age:        now.Sub(stat.ModTime()),
				SizeBytes:  dirSize(fullDir),
			})
		}
	}

	return entries
}

func dirSize(dir string) int64 {
	var total int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

// GetStats groups every entry by its originating repo directory.
func (c *Cleanup) GetStats() map[string]*RepoStats {
	stats := make(map[string]*RepoStats)

	for _, e := range c.IterEntries() {
		rs, ok := stats[e.RepoDir]
		if !ok {
			rs = &RepoStats{RepoDir: e.RepoDir}
			stats[e.RepoDir] = rs
		}
		rs.EntryCount++
		rs.TotalSize += e.SizeBytes
		if rs.EntryCount == 1 || e.Age > rs.OldestAge {
			rs.OldestAge = e.Age
		}
		if rs.EntryCount == 1 || e.Age < rs.NewestAge {
			rs.NewestAge = e.Age
		}
	}

	return stats
}

// Filter bundles the AND-combined selection filters.
type Filter struct {
	Repo         string // normalized absolute path; empty means no filter
	OlderThan    time.Duration
	HasOlderThan bool
	Tool         string
}

// FindEntries returns every entry matching every set filter.
func (c *Cleanup) FindEntries(f Filter) []Entry {
	var normalizedRepo string
	if f.Repo != "" {
		normalizedRepo = strings.ToLower(filepath.Clean(f.Repo))
	}

	var matches []Entry
	for _, e := range c.IterEntries() {
		if normalizedRepo != "" && strings.ToLower(filepath.Clean(e.RepoDir)) != normalizedRepo {
			continue
		}
		if f.HasOlderThan && e.Age < f.OlderThan {
			continue
		}
		if f.Tool != "" && e.ToolName != f.Tool {
			continue
		}
		matches = append(matches, e)
	}
	return matches
}

// DeleteResult tallies what a deletion pass did (or would do, on dry run).
type DeleteResult struct {
	Deleted      int
	Failed       int
	DeletedBytes int64
}

// DeleteEntries removes every entry directory, then rewrites each affected
// folder_index.json to drop the deleted cache keys, and finally removes any
// compound folder left holding nothing but folder_index.json. dryRun skips
// all filesystem mutation and only tallies what would happen.
func (c *Cleanup) DeleteEntries(entries []Entry, dryRun bool) DeleteResult {
	var result DeleteResult
	deletedByFolder := make(map[string]map[string]bool)

	for _, e := range entries {
		if dryRun {
			result.Deleted++
			result.DeletedBytes += e.SizeBytes
			continue
		}

		if err := os.RemoveAll(e.Dir); err != nil {
			result.Failed++
			continue
		}
		result.Deleted++
		result.DeletedBytes += e.SizeBytes

		compoundDir := filepath.Dir(e.Dir)
		if deletedByFolder[compoundDir] == nil {
			deletedByFolder[compoundDir] = make(map[string]bool)
		}
		deletedByFolder[compoundDir][e.CacheKey] = true
	}

	if dryRun {
		return result
	}

	for compoundDir, keys := range deletedByFolder {
		updateFolderIndex(compoundDir, keys)
	}

	c.removeEmptyCompoundFolders()

	return result
}

func updateFolderIndex(compoundDir string, deletedKeys map[string]bool) {
	indexPath := filepath.Join(compoundDir, "folder_index.json")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}

	entriesRaw, ok := raw["entries"].([]any)
	if !ok {
		return
	}

	filtered := entriesRaw[:0]
	for _, entryRaw := range entriesRaw {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		cacheKey, _ := entry["cache_key"].(string)
		if deletedKeys[cacheKey] {
			continue
		}
		filtered = append(filtered, entryRaw)
	}
	raw["entries"] = filtered

	newData, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(indexPath, newData, 0666)
}

func (c *Cleanup) removeEmptyCompoundFolders() {
	folders, err := os.ReadDir(c.CacheDir)
	if err != nil {
		return
	}

	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		dir := filepath.Join(c.CacheDir, folder.Name())
		remaining, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		hasRealContent := false
		for _, item := range remaining {
			if item.Name() != ".lock" && item.Name() != "folder_index.json" {
				hasRealContent = true
				break
			}
		}
		if !hasRealContent {
			_ = os.RemoveAll(dir)
		}
	}
}

// FormatSize renders a byte count for the stats table, reusing go-humanize's
// IEC formatter rather than hand-rolling the thresholds.
func FormatSize(sizeBytes int64) string {
	return humanize.IBytes(uint64(sizeBytes))
}

// FormatAge renders an entry age as a relative time such as "now",
// "3 hours ago" or "2 weeks ago", delegating the magnitude buckets to
// go-humanize's relative-time formatter.
func FormatAge(age time.Duration) string {
	return humanize.RelTime(time.Now().Add(-age), time.Now(), "ago", "from now")
}

// SortedRepoDirs returns stats' keys sorted, for deterministic stats output.
func SortedRepoDirs(stats map[string]*RepoStats) []string {
	dirs := make([]string, 0, len(stats))
	for dir := range stats {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
