package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// CacheKey is the compound identity of a cacheable invocation: source file,
// its size (so differently-sized files at the same path never collide),
// tool name, the semantic tool arguments, and any input-path arguments that
// survived repo-relative translation (see NewCacheKey).
type CacheKey struct {
	SourcePath    RepoPath
	SourceSize    int64
	ToolName      string
	ToolArgs      []string
	InputPathArgs []string
}

// NewCacheKey builds a CacheKey, translating the input-path arguments: an
// argument that resolves (via RepoPath rules) inside repoRoot is rewritten
// to its repo-relative form; one that resolves outside repoRoot is dropped
// entirely so the key stays portable across hosts; anything that doesn't
// look like a path (leading '-') passes through unchanged.
func NewCacheKey(sourcePath RepoPath, sourceSize int64, toolName string, toolArgs []string, rawInputPathArgs []string, repoRoot, cwd string) CacheKey {
	return CacheKey{
		SourcePath:    sourcePath,
		SourceSize:    sourceSize,
		ToolName:      toolName,
		ToolArgs:      append([]string(nil), toolArgs...),
		InputPathArgs: translateInputPathArgs(rawInputPathArgs, repoRoot, cwd),
	}
}

// translateInputPathArgs drops outside-repo path args so the key stays
// portable across hosts with differently-located system directories.
func translateInputPathArgs(rawArgs []string, repoRoot, cwd string) []string {
	translated := make([]string, 0, len(rawArgs))

	for _, arg := range rawArgs {
		if strings.HasPrefix(arg, "-") {
			translated = append(translated, arg)
			continue
		}

		// Absolute or relative, NewRepoPath's containment check decides:
		// inside the repo it becomes relative, outside it is dropped so the
		// key remains host-portable.
		repoPath, err := NewRepoPath(repoRoot, arg, cwd)
		if err != nil {
			continue
		}

		translated = append(translated, repoPath.String())
	}

	return translated
}

// FolderName returns a deterministic, filesystem-safe encoding of the key:
// the directory name under the cache root that holds this key's
// folder_index.json and entries. It is a pure function of the key's fields.
func (k CacheKey) FolderName() string {
	compound := k.compoundString()

	// A natural "sanitized-and-joined" encoding is unbounded in length (long
	// arg lists, deep paths); fall back to a content hash of the compound
	// string whenever the sanitized form would risk tripping platform
	// filename-length limits, so FolderName is always safe to mkdir.
	sanitized := sanitizeForFilename(compound)
	if len(sanitized) <= 180 {
		return sanitized
	}

	sum := sha1.Sum([]byte(compound))
	return sanitizeForFilename(k.SourcePath.String()) + "_" + hex.EncodeToString(sum[:])
}

// compoundString is the deterministic string form of the key referenced by
// folder_index.json's "compound_key" field.
func (k CacheKey) compoundString() string {
	argsJSON, _ := json.Marshal(k.ToolArgs)
	inputArgsJSON, _ := json.Marshal(k.InputPathArgs)

	return strings.Join([]string{
		k.SourcePath.String(),
		strconv.FormatInt(k.SourceSize, 10),
		k.ToolName,
		string(argsJSON),
		string(inputArgsJSON),
	}, "::")
}

func sanitizeForFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
