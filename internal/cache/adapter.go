package cache

// ToolAdapter is what the engine requires from a tool wrapper. One
// implementation exists per supported tool family; tool enumeration is
// closed and known at build time (see internal/adapter).
type ToolAdapter interface {
	// Name identifies the tool for CacheKey.ToolName and the cleanup CLI's
	// --tool filter.
	Name() string

	// Env returns additional environment variables for the child process,
	// or nil if the tool needs nothing beyond the inherited environment.
	Env() map[string]string

	// DiscoverDependencies returns every file whose content contributed to
	// the tool's output and that lives inside repoRoot. Paths outside
	// repoRoot are silently dropped by the adapter; they are assumed
	// stable and the cache will not track them. Order MUST be deterministic
	// for a given input so that equal dependency sets hash equal.
	DiscoverDependencies(mainFile, repoRoot string) ([]RepoPath, error)

	// OutputPatterns returns absolute glob patterns (possibly containing
	// "**" multi-segment wildcards) likely to match artifacts the tool will
	// produce.
	OutputPatterns(mainFile, repoRoot string) []string

	// BuildCommand returns the full argv vector (including the tool binary
	// itself as argv[0]) to invoke on a miss.
	BuildCommand(mainFile string) []string

	// CachesFailures reports whether a nonzero exit should be cached and
	// replayed. Compiler-style tools return true: a failing compile is a
	// reproducible diagnostic the user expects to see again. Heavy
	// whole-repo tools return false so a transient failure isn't replayed
	// forever. The store itself accepts any exit code; this is the
	// adapter's call.
	CachesFailures() bool
}
