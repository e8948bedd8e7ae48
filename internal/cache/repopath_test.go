package cache

import (
	"path/filepath"
	"testing"
)

func TestNewRepoPath_InsideRepo(t *testing.T) {
	root := "/repo"
	p, err := NewRepoPath(root, "/repo/src/main.cpp", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "src/main.cpp" {
		t.Fatalf("expected src/main.cpp, got %q", p.String())
	}
}

func TestNewRepoPath_RelativeToCwd(t *testing.T) {
	root := "/repo"
	p, err := NewRepoPath(root, "main.cpp", "/repo/src")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "src/main.cpp" {
		t.Fatalf("expected src/main.cpp, got %q", p.String())
	}
}

func TestNewRepoPath_OutsideRepo(t *testing.T) {
	_, err := NewRepoPath("/repo", "/elsewhere/main.cpp", "")
	if err == nil {
		t.Fatalf("expected an error for a path outside the repo")
	}
}

func TestNewRepoPath_DotDotEscape(t *testing.T) {
	_, err := NewRepoPath("/repo/sub", "../../etc/passwd", "")
	if err == nil {
		t.Fatalf("expected an error for a path that escapes the repo via ..")
	}
}

func TestRepoPath_ToAbsolute(t *testing.T) {
	p := RepoPathFromRelativeString("a/b/c.h")
	got := p.ToAbsolute("/repo")
	want := filepath.Join("/repo", "a", "b", "c.h")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRepoPath_IsZero(t *testing.T) {
	if !(RepoPath{}).IsZero() {
		t.Fatalf("expected zero-value RepoPath to report IsZero")
	}
}
