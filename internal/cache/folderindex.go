package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quicken/internal/common"
)

// folderIndexEntry is one row of folder_index.json: an entry id plus the
// dependency set that was true when it was captured.
type folderIndexEntry struct {
	CacheKey     string             `json:"cache_key"`
	Dependencies []fileMetadataJSON `json:"dependencies"`
}

type folderIndexFile struct {
	CompoundKey string             `json:"compound_key"`
	NextEntryID int                `json:"next_entry_id"`
	Entries     []folderIndexEntry `json:"entries"`
}

// FolderIndex is the per-CacheKey on-disk structure: it owns
// folder_index.json, allocates monotonic entry ids, and maintains an
// in-memory dep_hash -> cache_key map so store() can detect and reuse
// entries that already cover an identical dependency set.
type FolderIndex struct {
	dir         string
	compoundKey string

	mu          sync.Mutex
	nextEntryID int
	entries     []folderIndexEntry
	depHashToID map[string]string
}

// OpenFolderIndex loads folder_index.json from dir, creating an empty one in
// memory if the folder (or the file within it) doesn't exist yet. Nothing is
// written to disk until the first Append.
func OpenFolderIndex(dir, compoundKey string) (*FolderIndex, error) {
	fi := &FolderIndex{
		dir:         dir,
		compoundKey: compoundKey,
		nextEntryID: 1,
		depHashToID: make(map[string]string),
	}

	path := filepath.Join(dir, "folder_index.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fi, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCacheCorrupt, path, err)
	}

	var onDisk folderIndexFile
	if err := json.Unmarshal(data, &onDisk); err != nil {
		// Corrupt index: treat as empty rather than propagating a hard
		// failure: callers must degrade to a miss, never crash the build.
		return fi, nil
	}

	fi.entries = onDisk.Entries
	for _, e := range onDisk.Entries {
		maxID := parseEntrySeq(e.CacheKey)
		if maxID+1 > fi.nextEntryID {
			fi.nextEntryID = maxID + 1
		}
		fi.depHashToID[hashDependencies(dependenciesFromJSON(e.Dependencies))] = e.CacheKey
	}

	return fi, nil
}

func parseEntrySeq(cacheKey string) int {
	var seq int
	if _, err := fmt.Sscanf(cacheKey, "entry_%d", &seq); err != nil {
		return 0
	}
	return seq
}

func dependenciesFromJSON(deps []fileMetadataJSON) []FileMetadata {
	out := make([]FileMetadata, len(deps))
	for i, d := range deps {
		out[i] = fileMetadataFromJSON(d)
	}
	return out
}

func dependenciesToJSON(deps []FileMetadata) []fileMetadataJSON {
	out := make([]fileMetadataJSON, len(deps))
	for i, d := range deps {
		out[i] = d.toJSON()
	}
	return out
}

// hashDependencies is the "dep-hash": a 64-bit BLAKE2b digest over the
// ordered concatenation of "<repo-relative-path>:<content-hash>" for each
// dependency, used to detect that two invocations share an identical
// dependency set.
func hashDependencies(deps []FileMetadata) string {
	h := newShortBlake2b()
	for _, d := range deps {
		h.Write([]byte(d.Path.String()))
		h.Write([]byte{':'})
		h.Write([]byte(d.Hash))
	}
	return h.HexSum()
}

// Entries returns a snapshot of the currently known entries.
func (fi *FolderIndex) Entries() []folderIndexEntry {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	out := make([]folderIndexEntry, len(fi.entries))
	copy(out, fi.entries)
	return out
}

// LookupByDepHash returns the cache_key sharing depHash, if any.
func (fi *FolderIndex) LookupByDepHash(depHash string) (string, bool) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	id, ok := fi.depHashToID[depHash]
	return id, ok
}

// AllocateEntryID returns the next "entry_NNNNNN" id, zero-padded to six
// digits, and advances the counter. The caller is responsible for actually
// creating the entry directory.
func (fi *FolderIndex) AllocateEntryID() string {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	id := fmt.Sprintf("entry_%06d", fi.nextEntryID)
	fi.nextEntryID++
	return id
}

// Append records a pointer to cacheKey with the given dependency set and
// persists folder_index.json atomically. Safe to call for both new entries
// and dedup-reused ones, which also get a fresh index pointer so future
// lookups see them first.
func (fi *FolderIndex) Append(cacheKey string, deps []FileMetadata) error {
	fi.mu.Lock()
	fi.entries = append(fi.entries, folderIndexEntry{
		CacheKey:     cacheKey,
		Dependencies: dependenciesToJSON(deps),
	})
	fi.depHashToID[hashDependencies(deps)] = cacheKey
	fi.mu.Unlock()

	return fi.persist()
}

// RefreshEntryDependencies rewrites the stored dependency list for an
// existing index entry in place (used on a Phase 2 lookup hit, and on
// dedup-reuse in store(), to record refreshed mtimes) and persists. An
// unknown cacheKey means a concurrent writer rewrote the index underneath
// us; that's ErrIndexConflict, and the caller treats the entry as absent.
func (fi *FolderIndex) RefreshEntryDependencies(cacheKey string, deps []FileMetadata) error {
	fi.mu.Lock()
	found := false
	for i := range fi.entries {
		if fi.entries[i].CacheKey == cacheKey {
			fi.entries[i].Dependencies = dependenciesToJSON(deps)
			found = true
			break
		}
	}
	fi.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s no longer present in folder index", ErrIndexConflict, cacheKey)
	}

	return fi.persist()
}

func (fi *FolderIndex) persist() error {
	fi.mu.Lock()
	onDisk := folderIndexFile{
		CompoundKey: fi.compoundKey,
		NextEntryID: fi.nextEntryID,
		Entries:     fi.entries,
	}
	fi.mu.Unlock()

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return err
	}

	return common.WriteFileAtomic(filepath.Join(fi.dir, "folder_index.json"), data)
}
