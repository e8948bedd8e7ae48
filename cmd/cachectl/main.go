// cachectl is the cache maintenance CLI: per-repo statistics and filtered
// deletion of cached entries.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"quicken/internal/cleanup"
)

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "quicken-cache")
	}
	return filepath.Join(home, ".quicken", "cache")
}

func main() {
	var cacheDirFlag string

	root := &cobra.Command{
		Use:     "cachectl",
		Short:   "Manage the quicken compile cache",
		Version: "1.0.0",
	}
	root.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", fmt.Sprintf("Cache directory (default: %s)", defaultCacheDir()))

	root.AddCommand(newStatsCmd(&cacheDirFlag))
	root.AddCommand(newClearCmd(&cacheDirFlag))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveCacheDir(cacheDirFlag string) string {
	if cacheDirFlag != "" {
		return cacheDirFlag
	}
	return defaultCacheDir()
}

func newStatsCmd(cacheDirFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-repo cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cleanup.New(resolveCacheDir(*cacheDirFlag))
			return runStats(c)
		},
	}
}

func runStats(c *cleanup.Cleanup) error {
	stats := c.GetStats()
	if len(stats) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	fmt.Println("Quicken Cache Statistics")
	fmt.Println("============================================================")
	fmt.Println()

	var totalEntries int
	var totalSize int64

	for _, repoDir := range cleanup.SortedRepoDirs(stats) {
		rs := stats[repoDir]
		fmt.Println(repoDir)
		fmt.Printf("  Entries: %d\n", rs.EntryCount)
		fmt.Printf("  Size: %s\n", cleanup.FormatSize(rs.TotalSize))
		fmt.Printf("  Oldest: %s\n", cleanup.FormatAge(rs.OldestAge))
		fmt.Printf("  Newest: %s\n", cleanup.FormatAge(rs.NewestAge))
		fmt.Println()

		totalEntries += rs.EntryCount
		totalSize += rs.TotalSize
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d entries, %s\n", totalEntries, cleanup.FormatSize(totalSize))

	return nil
}

func newClearCmd(cacheDirFlag *string) *cobra.Command {
	var all bool
	var dryRun bool
	var repo string
	var olderThanDays float64
	var hasOlderThan bool
	var tool string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete matching cache entries",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			hasOlderThan = cmd.Flags().Changed("older-than")
			if !all && repo == "" && !hasOlderThan && tool == "" {
				return fmt.Errorf("--clear requires a filter (--repo, --older-than, --tool) or --all")
			}
			if hasOlderThan && olderThanDays < 0 {
				return fmt.Errorf("--older-than cannot be negative")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cleanup.New(resolveCacheDir(*cacheDirFlag))

			resolvedRepo := repo
			if repo == "." {
				if cwd, err := os.Getwd(); err == nil {
					resolvedRepo = cwd
				}
			}

			filter := cleanup.Filter{Repo: resolvedRepo, Tool: tool}
			if hasOlderThan {
				filter.HasOlderThan = true
				filter.OlderThan = time.Duration(olderThanDays * 24 * float64(time.Hour))
			}

			return runClear(c, filter, dryRun)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete all cache entries (any other filter given still applies)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted without deleting")
	cmd.Flags().StringVar(&repo, "repo", "", "Filter: entries for this repository (use . for current directory)")
	cmd.Flags().Float64Var(&olderThanDays, "older-than", 0, "Filter: entries older than N days")
	cmd.Flags().StringVar(&tool, "tool", "", "Filter: entries for specific tool (e.g., cc, moc)")

	return cmd
}

func runClear(c *cleanup.Cleanup, filter cleanup.Filter, dryRun bool) error {
	entries := c.FindEntries(filter)
	if len(entries) == 0 {
		fmt.Println("No matching entries found.")
		return nil
	}

	var totalSize int64
	for _, e := range entries {
		totalSize += e.SizeBytes
	}

	if dryRun {
		fmt.Printf("Would delete %d entries (%s)\n\n", len(entries), cleanup.FormatSize(totalSize))

		byRepo := make(map[string]int)
		for _, e := range entries {
			byRepo[e.RepoDir]++
		}
		repos := make([]string, 0, len(byRepo))
		for r := range byRepo {
			repos = append(repos, r)
		}
		sort.Strings(repos)
		for _, r := range repos {
			fmt.Printf("%s: %d entries\n", r, byRepo[r])
		}
		return nil
	}

	result := c.DeleteEntries(entries, false)
	fmt.Printf("Deleted %d entries (%s)\n", result.Deleted, cleanup.FormatSize(result.DeletedBytes))
	if result.Failed > 0 {
		fmt.Printf("Warning: %d entries could not be deleted (permission denied or in use)\n", result.Failed)
	}

	return nil
}

