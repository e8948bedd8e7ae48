package cache

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RepoPath is a file location expressed relative to a repository root, in
// POSIX form ("a/b/c.h"). It never contains ".." and never resolves
// symlinks: two hosts with the same tree at different absolute locations
// must produce byte-identical RepoPath values for the same logical file.
type RepoPath struct {
	rel string
}

// NewRepoPath builds a RepoPath from a candidate path that may be absolute
// or relative to cwd (cwd defaults to repoRoot when empty). It fails with
// ErrPathOutsideRepo if the normalized location is not a descendant of
// repoRoot.
func NewRepoPath(repoRoot, candidatePath, cwd string) (RepoPath, error) {
	if cwd == "" {
		cwd = repoRoot
	}

	abs := candidatePath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, abs)
	}
	abs = filepath.Clean(abs)

	root := filepath.Clean(repoRoot)

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return RepoPath{}, fmt.Errorf("%w: %s", ErrPathOutsideRepo, candidatePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return RepoPath{}, fmt.Errorf("%w: %s", ErrPathOutsideRepo, candidatePath)
	}
	if rel == "." {
		rel = ""
	}

	return RepoPath{rel: filepath.ToSlash(rel)}, nil
}

// RepoPathFromRelativeString trusts relPosix as already-normalized,
// repo-relative POSIX form, used when decoding values that were produced
// by this same package (e.g. from a persisted index).
func RepoPathFromRelativeString(relPosix string) RepoPath {
	return RepoPath{rel: relPosix}
}

func (p RepoPath) IsZero() bool { return p.rel == "" }

func (p RepoPath) String() string { return p.rel }

func (p RepoPath) ToAbsolute(repoRoot string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(p.rel))
}
