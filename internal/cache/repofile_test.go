package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRepoFile_MetadataMemoizesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.h"), []byte("content"), 0666); err != nil {
		t.Fatal(err)
	}

	repoPath, err := NewRepoPath(dir, "a.h", dir)
	if err != nil {
		t.Fatal(err)
	}
	repoFile := NewRepoFile(repoPath, dir)

	first, err := repoFile.Metadata()
	if err != nil {
		t.Fatal(err)
	}

	// Change the file on disk; Metadata should still return the memoized
	// first result rather than re-statting.
	if err := os.WriteFile(filepath.Join(dir, "a.h"), []byte("changed content"), 0666); err != nil {
		t.Fatal(err)
	}

	second, err := repoFile.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatalf("expected memoized metadata %+v, got %+v", first, second)
	}
}

func TestRepoFile_MetadataErrorsAndMemoizesErrorForMissingFile(t *testing.T) {
	dir := t.TempDir()
	repoPath := RepoPathFromRelativeString("does-not-exist.h")
	repoFile := NewRepoFile(repoPath, dir)

	if _, err := repoFile.Metadata(); err == nil {
		t.Fatal("expected an error for a nonexistent dependency")
	}

	if err := os.WriteFile(filepath.Join(dir, "does-not-exist.h"), []byte("now it exists"), 0666); err != nil {
		t.Fatal(err)
	}

	if _, err := repoFile.Metadata(); err == nil {
		t.Fatal("expected the memoized error to persist even after the file appears")
	}
}

func TestRepoFile_Path(t *testing.T) {
	repoPath := RepoPathFromRelativeString("src/a.h")
	repoFile := NewRepoFile(repoPath, "/repo")

	if repoFile.Path() != repoPath {
		t.Fatalf("Path() = %v, want %v", repoFile.Path(), repoPath)
	}
}
