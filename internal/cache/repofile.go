package cache

import "sync"

// RepoFile pairs a RepoPath with its lazily-computed FileMetadata: a
// convenience adapters use while walking a dependency list so a path
// discovered more than once in the same pass is only ever statted and
// hashed once.
type RepoFile struct {
	path     RepoPath
	repoRoot string

	once     sync.Once
	metadata FileMetadata
	err      error
}

// NewRepoFile wraps path for repoRoot. Metadata is not computed until the
// first call to Metadata.
func NewRepoFile(path RepoPath, repoRoot string) *RepoFile {
	return &RepoFile{path: path, repoRoot: repoRoot}
}

func (f *RepoFile) Path() RepoPath { return f.path }

// Metadata stats and hashes the file on first call, caching the result (or
// error) for every subsequent call. A path that -MG listed for a header that
// doesn't exist yet returns an error here rather than failing later in
// CacheStore.Store, which requires every dependency to be statable.
func (f *RepoFile) Metadata() (FileMetadata, error) {
	f.once.Do(func() {
		f.metadata, f.err = FileMetadataFromDisk(f.path, f.repoRoot)
	})
	return f.metadata, f.err
}
