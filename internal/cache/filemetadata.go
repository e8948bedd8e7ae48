package cache

import (
	"os"
)

// FileMetadata is the (RepoPath, ContentHash, mtime_ns, size) tuple recorded
// for every dependency and artifact tracked by a cache entry.
type FileMetadata struct {
	Path    RepoPath
	Hash    ContentHash
	MtimeNs int64
	Size    int64
}

// FileMetadataFromDisk stats repoPath under repoRoot and hashes its current
// content.
func FileMetadataFromDisk(repoPath RepoPath, repoRoot string) (FileMetadata, error) {
	abs := repoPath.ToAbsolute(repoRoot)

	stat, err := os.Stat(abs)
	if err != nil {
		return FileMetadata{}, err
	}

	hash, err := HashSourceFile(abs)
	if err != nil {
		return FileMetadata{}, err
	}

	return FileMetadata{
		Path:    repoPath,
		Hash:    hash,
		MtimeNs: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
	}, nil
}

// MatchesCurrent checks whether the file on disk still matches: cheap
// mtime+size comparison first, falling back to a content hash only when the
// mtime moved but the size didn't. It never hashes when size alone already
// proves a mismatch.
func (fm FileMetadata) MatchesCurrent(repoRoot string) (matches bool, refreshed FileMetadata) {
	abs := fm.Path.ToAbsolute(repoRoot)

	stat, err := os.Stat(abs)
	if err != nil {
		return false, FileMetadata{}
	}

	currentSize := stat.Size()
	currentMtimeNs := stat.ModTime().UnixNano()

	if currentMtimeNs == fm.MtimeNs && currentSize == fm.Size {
		return true, fm
	}

	if currentSize != fm.Size {
		return false, FileMetadata{}
	}

	currentHash, err := HashSourceFile(abs)
	if err != nil || currentHash != fm.Hash {
		return false, FileMetadata{}
	}

	return true, FileMetadata{Path: fm.Path, Hash: fm.Hash, MtimeNs: currentMtimeNs, Size: currentSize}
}

// fileMetadataJSON is the on-disk shape: {"path","hash","mtime_ns","size"}.
type fileMetadataJSON struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	MtimeNs int64  `json:"mtime_ns"`
	Size    int64  `json:"size"`
}

func (fm FileMetadata) toJSON() fileMetadataJSON {
	return fileMetadataJSON{
		Path:    fm.Path.String(),
		Hash:    string(fm.Hash),
		MtimeNs: fm.MtimeNs,
		Size:    fm.Size,
	}
}

func fileMetadataFromJSON(j fileMetadataJSON) FileMetadata {
	return FileMetadata{
		Path:    RepoPathFromRelativeString(j.Path),
		Hash:    ContentHash(j.Hash),
		MtimeNs: j.MtimeNs,
		Size:    j.Size,
	}
}
