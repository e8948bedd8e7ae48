package cache

import "errors"

// Sentinel error kinds returned by the cache engine. Callers use errors.Is
// to branch on them; the underlying message carries the offending path or
// reason.
var (
	// ErrPathOutsideRepo is returned when constructing a RepoPath for a
	// file that is not a descendant of the repo root.
	ErrPathOutsideRepo = errors.New("path outside repo")

	// ErrCacheCorrupt marks a malformed folder_index.json/metadata.json,
	// or an entry directory missing its metadata.json. The caller should
	// treat the offending entry as absent, never crash the build.
	ErrCacheCorrupt = errors.New("cache corrupt")

	// ErrRestoreIncomplete is returned when one or more artifact copies
	// during restore failed or timed out.
	ErrRestoreIncomplete = errors.New("restore incomplete")

	// ErrToolSpawnFailed wraps a failure to create the child process.
	ErrToolSpawnFailed = errors.New("tool spawn failed")

	// ErrIndexConflict marks inconsistent concurrent writer state; the
	// reader discards the corrupt side and treats it as a miss.
	ErrIndexConflict = errors.New("index conflict")
)
