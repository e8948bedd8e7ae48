package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiffSnapshots_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.o")

	before, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}

	objPath := filepath.Join(dir, "a.o")
	if err := os.WriteFile(objPath, []byte("data"), 0666); err != nil {
		t.Fatal(err)
	}

	after, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}

	produced := DiffSnapshots(before, after)
	if len(produced) != 1 || produced[0] != objPath {
		t.Fatalf("expected the new file to be detected as produced, got %v", produced)
	}
}

func TestDiffSnapshots_DetectsOverwrittenFileViaMtime(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.o")
	objPath := filepath.Join(dir, "a.o")

	if err := os.WriteFile(objPath, []byte("v1"), 0666); err != nil {
		t.Fatal(err)
	}
	before, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(time.Hour)
	if err := os.WriteFile(objPath, []byte("v2"), 0666); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(objPath, future, future); err != nil {
		t.Fatal(err)
	}

	after, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}

	produced := DiffSnapshots(before, after)
	if len(produced) != 1 || produced[0] != objPath {
		t.Fatalf("expected the overwritten file to be detected via mtime increase, got %v", produced)
	}
}

func TestDiffSnapshots_UnchangedFileIsNotProduced(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.o")
	objPath := filepath.Join(dir, "a.o")

	if err := os.WriteFile(objPath, []byte("v1"), 0666); err != nil {
		t.Fatal(err)
	}

	before, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}
	after, err := TakeSnapshot([]string{pattern})
	if err != nil {
		t.Fatal(err)
	}

	produced := DiffSnapshots(before, after)
	if len(produced) != 0 {
		t.Fatalf("expected no produced files when nothing changed, got %v", produced)
	}
}

func TestTakeSnapshot_SupportsDoubleStarGlobs(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0777); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(nested, "out.xml")
	if err := os.WriteFile(target, []byte("data"), 0666); err != nil {
		t.Fatal(err)
	}

	snap, err := TakeSnapshot([]string{filepath.Join(dir, "**", "*.xml")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap[target]; !ok {
		t.Fatalf("expected ** glob to match nested file %s, got %v", target, snap)
	}
}
