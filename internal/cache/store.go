package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"quicken/internal/common"
)

// entryMetadata is the on-disk shape of entry_NNNNNN/metadata.json.
type entryMetadata struct {
	CacheKey     string             `json:"cache_key"`
	SourceFile   string             `json:"source_file"`
	ToolName     string             `json:"tool_name"`
	ToolArgs     []string           `json:"tool_args"`
	MainFilePath string             `json:"main_file_path"`
	Dependencies []fileMetadataJSON `json:"dependencies"`
	Files        []string           `json:"files"`
	Stdout       string             `json:"stdout"`
	Stderr       string             `json:"stderr"`
	ReturnCode   int                `json:"returncode"`
	RepoDir      string             `json:"repo_dir"`
}

// CacheStore owns the cache root and a map of already-opened FolderIndexes,
// both living for the store's lifetime. There is no global index: every
// CacheKey's state lives in its own folder, so work on different keys never
// contends.
type CacheStore struct {
	root           string
	restoreWorkers int

	mu      sync.Mutex
	indexes map[string]*FolderIndex
}

// NewCacheStore opens a cache rooted at root (created if absent). restoreWorkers
// sizes the bounded pool restore() uses for parallel artifact copies; 0 picks
// the default of 8.
func NewCacheStore(root string, restoreWorkers int) (*CacheStore, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, err
	}
	return &CacheStore{
		root:           root,
		restoreWorkers: restoreWorkers,
		indexes:        make(map[string]*FolderIndex),
	}, nil
}

func (s *CacheStore) folderIndex(key CacheKey) (*FolderIndex, string, error) {
	folderName := key.FolderName()
	dir := filepath.Join(s.root, folderName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if fi, ok := s.indexes[folderName]; ok {
		return fi, dir, nil
	}

	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, "", err
	}

	fi, err := OpenFolderIndex(dir, key.compoundString())
	if err != nil {
		return nil, "", err
	}
	s.indexes[folderName] = fi
	return fi, dir, nil
}

// Lookup performs the two-phase dependency validation: a cheap
// mtime+size-only pass over every entry, then (only if nothing matched) a
// pass that hashes exactly the dependencies whose mtime moved. Both passes
// scan the index rows newest first. It returns the matching entry's
// directory, or ok=false on a miss. It never errors for "no entry found";
// errors are reserved for genuine I/O failures.
func (s *CacheStore) Lookup(key CacheKey, repoRoot string) (entryDir string, ok bool, err error) {
	folderName := key.FolderName()
	dir := filepath.Join(s.root, folderName)

	if _, statErr := os.Stat(dir); statErr != nil {
		return "", false, nil
	}

	fi, dir, err := s.folderIndex(key)
	if err != nil {
		return "", false, err
	}

	entries := fi.Entries()

	// Phase 1: mtime+size only, no file reads.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		deps := dependenciesFromJSON(entry.Dependencies)
		if allMatchMtimeOnly(deps, repoRoot) {
			candidateDir := filepath.Join(dir, entry.CacheKey)
			if common.FileExists(filepath.Join(candidateDir, "metadata.json")) {
				return candidateDir, true, nil
			}
		}
	}

	// Phase 2: hash only the dependencies whose mtime changed.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		deps := dependenciesFromJSON(entry.Dependencies)
		refreshed, matched := matchWithHashFallback(deps, repoRoot)
		if !matched {
			continue
		}

		candidateDir := filepath.Join(dir, entry.CacheKey)
		if !common.FileExists(filepath.Join(candidateDir, "metadata.json")) {
			continue
		}

		if err := s.refreshDependencyMtimes(candidateDir, fi, entry.CacheKey, refreshed); err != nil {
			// Corrupt metadata or a concurrent index rewrite: prefer a miss
			// over failing the build, skip this entry.
			if errors.Is(err, ErrCacheCorrupt) || errors.Is(err, ErrIndexConflict) {
				continue
			}
			return "", false, err
		}

		return candidateDir, true, nil
	}

	return "", false, nil
}

func allMatchMtimeOnly(deps []FileMetadata, repoRoot string) bool {
	for _, d := range deps {
		abs := d.Path.ToAbsolute(repoRoot)
		stat, err := os.Stat(abs)
		if err != nil {
			return false
		}
		if stat.ModTime().UnixNano() != d.MtimeNs || stat.Size() != d.Size {
			return false
		}
	}
	return true
}

// matchWithHashFallback reuses FileMetadata.MatchesCurrent per dependency:
// cheap mtime+size match short-circuits; only a changed mtime triggers a
// hash. Any mismatch rejects the whole entry.
func matchWithHashFallback(deps []FileMetadata, repoRoot string) ([]FileMetadata, bool) {
	refreshed := make([]FileMetadata, len(deps))
	for i, d := range deps {
		ok, updated := d.MatchesCurrent(repoRoot)
		if !ok {
			return nil, false
		}
		refreshed[i] = updated
	}
	return refreshed, true
}

func (s *CacheStore) refreshDependencyMtimes(entryDir string, fi *FolderIndex, cacheKey string, deps []FileMetadata) error {
	metaPath := filepath.Join(entryDir, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var meta entryMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	meta.Dependencies = dependenciesToJSON(deps)

	newData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := common.WriteFileAtomic(metaPath, newData); err != nil {
		return err
	}

	return fi.RefreshEntryDependencies(cacheKey, deps)
}

// StoreInput bundles everything Store needs to capture an invocation.
type StoreInput struct {
	Key          CacheKey
	Dependencies []RepoPath // dependencies[0] is the primary source file by convention
	Artifacts    []string   // absolute paths, as produced by the tool
	Stdout       string
	Stderr       string
	ReturnCode   int
	RepoRoot     string
}

// Store captures an invocation, deduplicating: it stats+hashes every
// dependency, computes the dep-hash, and either reuses an existing entry
// whose dependency set is identical (refreshing only its mtimes) or
// allocates a new entry_NNNNNN, copies the artifacts into it bit-exact, and
// writes metadata.json. It always appends an index pointer, even on reuse.
func (s *CacheStore) Store(in StoreInput) (entryDir string, err error) {
	fi, dir, err := s.folderIndex(in.Key)
	if err != nil {
		return "", err
	}

	depMetadata := make([]FileMetadata, len(in.Dependencies))
	for i, dep := range in.Dependencies {
		fm, err := FileMetadataFromDisk(dep, in.RepoRoot)
		if err != nil {
			return "", fmt.Errorf("hashing dependency %s: %w", dep.String(), err)
		}
		depMetadata[i] = fm
	}

	depHash := hashDependencies(depMetadata)

	if existingKey, ok := fi.LookupByDepHash(depHash); ok {
		entryDir = filepath.Join(dir, existingKey)
		err := s.refreshDependencyMtimes(entryDir, fi, existingKey, depMetadata)
		if err == nil {
			if err := fi.Append(existingKey, depMetadata); err != nil {
				return "", err
			}
			return entryDir, nil
		}
		// The entry the dep-hash map points at is gone or corrupt (a cleanup
		// pass or a concurrent writer): fall through and store it fresh.
		if !errors.Is(err, ErrCacheCorrupt) && !errors.Is(err, ErrIndexConflict) {
			return "", err
		}
	}

	cacheKey := fi.AllocateEntryID()
	entryDir = filepath.Join(dir, cacheKey)
	if err := os.MkdirAll(entryDir, 0777); err != nil {
		return "", err
	}

	storedFiles, err := copyArtifactsIntoEntry(entryDir, in.RepoRoot, in.Artifacts)
	if err != nil {
		return "", err
	}
	sort.Strings(storedFiles)

	mainFile := ""
	if len(in.Dependencies) > 0 {
		mainFile = in.Dependencies[0].String()
	}

	meta := entryMetadata{
		CacheKey:     cacheKey,
		SourceFile:   in.Key.SourcePath.String(),
		ToolName:     in.Key.ToolName,
		ToolArgs:     in.Key.ToolArgs,
		MainFilePath: mainFile,
		Dependencies: dependenciesToJSON(depMetadata),
		Files:        storedFiles,
		Stdout:       in.Stdout,
		Stderr:       in.Stderr,
		ReturnCode:   in.ReturnCode,
		RepoDir:      in.RepoRoot,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := common.WriteFileAtomic(filepath.Join(entryDir, "metadata.json"), data); err != nil {
		return "", err
	}

	if err := fi.Append(cacheKey, depMetadata); err != nil {
		return "", err
	}

	return entryDir, nil
}

// copyArtifactsIntoEntry copies each artifact into entryDir under its
// repo-relative path (falling back to its basename when it lies outside
// repoRoot), returning the stored repo-relative paths.
func copyArtifactsIntoEntry(entryDir, repoRoot string, artifacts []string) ([]string, error) {
	stored := make([]string, 0, len(artifacts))

	for _, artifact := range artifacts {
		if !common.FileExists(artifact) {
			continue
		}

		relPath, err := filepath.Rel(repoRoot, artifact)
		if err != nil || relPath == ".." || hasDotDotPrefix(relPath) {
			relPath = filepath.Base(artifact)
		}
		relPath = filepath.ToSlash(relPath)

		dest := filepath.Join(entryDir, filepath.FromSlash(relPath))
		if err := common.CopyFileBitExact(artifact, dest); err != nil {
			return nil, err
		}
		stored = append(stored, relPath)
	}

	return stored, nil
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

// Restore replays a stored entry: it reads metadata.json, pre-creates every
// unique artifact parent directory synchronously, dispatches one copy task
// per artifact to the bounded worker pool, translates tracked paths in the
// captured stdout/stderr from the entry's original repo_dir to repoRoot, and
// returns the replayed exit code plus the translated streams.
type RestoreResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (s *CacheStore) Restore(entryDir, repoRoot string) (RestoreResult, error) {
	data, err := os.ReadFile(filepath.Join(entryDir, "metadata.json"))
	if err != nil {
		return RestoreResult{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var meta entryMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return RestoreResult{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	folders := make(map[string]struct{})
	for _, rel := range meta.Files {
		dest := filepath.Join(repoRoot, filepath.FromSlash(rel))
		folders[filepath.Dir(dest)] = struct{}{}
	}
	for folder := range folders {
		if err := os.MkdirAll(folder, 0777); err != nil {
			return RestoreResult{}, err
		}
	}

	pool := newCopyWorkerPool(s.restoreWorkers)
	for _, rel := range meta.Files {
		rel := rel
		pool.Submit(func() error {
			src := filepath.Join(entryDir, filepath.FromSlash(rel))
			dest := filepath.Join(repoRoot, filepath.FromSlash(rel))
			return common.CopyFileBitExact(src, dest)
		})
	}

	trackedPaths := collectTrackedPaths(meta)
	oldRepoDir := meta.RepoDir
	if oldRepoDir == "" {
		oldRepoDir = repoRoot
	}
	stdout := TranslatePaths(meta.Stdout, oldRepoDir, repoRoot, trackedPaths)
	stderr := TranslatePaths(meta.Stderr, oldRepoDir, repoRoot, trackedPaths)

	if err := pool.CloseAndWait(60 * time.Second); err != nil {
		return RestoreResult{}, err
	}

	return RestoreResult{ExitCode: meta.ReturnCode, Stdout: stdout, Stderr: stderr}, nil
}

func collectTrackedPaths(meta entryMetadata) []RepoPath {
	paths := make([]RepoPath, 0, 1+len(meta.Dependencies)+len(meta.Files))
	if meta.MainFilePath != "" {
		paths = append(paths, RepoPathFromRelativeString(meta.MainFilePath))
	}
	for _, d := range meta.Dependencies {
		paths = append(paths, RepoPathFromRelativeString(d.Path))
	}
	for _, f := range meta.Files {
		paths = append(paths, RepoPathFromRelativeString(f))
	}
	return paths
}
