package cache

import "testing"

func TestNewCacheKey_DropsOutsideRepoInputArgs(t *testing.T) {
	src, _ := NewRepoPath("/repo", "/repo/a.cpp", "")
	key := NewCacheKey(src, 100, "cc", []string{"-Wall"}, []string{"/repo/include", "/usr/include", "-Iflag"}, "/repo", "/repo")

	if len(key.InputPathArgs) != 2 {
		t.Fatalf("expected 2 surviving input path args, got %v", key.InputPathArgs)
	}
	if key.InputPathArgs[0] != "include" {
		t.Fatalf("expected repo-relative translation, got %q", key.InputPathArgs[0])
	}
	if key.InputPathArgs[1] != "-Iflag" {
		t.Fatalf("expected flag-like arg to pass through untouched, got %q", key.InputPathArgs[1])
	}
}

func TestNewCacheKey_DifferentOutsideRepoPathsShareAKey(t *testing.T) {
	// Both -include targets live outside the repo, so both are dropped and
	// the two invocations deliberately share one key (and its entries).
	src, _ := NewRepoPath("/repo", "/repo/a.cpp", "")
	k1 := NewCacheKey(src, 100, "cc", []string{"-c"}, []string{"-include", "/tmp/x.h"}, "/repo", "/repo")
	k2 := NewCacheKey(src, 100, "cc", []string{"-c"}, []string{"-include", "/other/y.h"}, "/repo", "/repo")

	if k1.FolderName() != k2.FolderName() {
		t.Fatalf("expected outside-repo include paths to be dropped from the key: %q != %q",
			k1.FolderName(), k2.FolderName())
	}
}

func TestCacheKey_FolderName_Deterministic(t *testing.T) {
	src, _ := NewRepoPath("/repo", "/repo/a.cpp", "")
	k1 := NewCacheKey(src, 100, "cc", []string{"-O2"}, nil, "/repo", "/repo")
	k2 := NewCacheKey(src, 100, "cc", []string{"-O2"}, nil, "/repo", "/repo")

	if k1.FolderName() != k2.FolderName() {
		t.Fatalf("expected identical keys to produce identical folder names")
	}
}

func TestCacheKey_FolderName_DiffersOnArgs(t *testing.T) {
	src, _ := NewRepoPath("/repo", "/repo/a.cpp", "")
	k1 := NewCacheKey(src, 100, "cc", []string{"-O2"}, nil, "/repo", "/repo")
	k2 := NewCacheKey(src, 100, "cc", []string{"-O3"}, nil, "/repo", "/repo")

	if k1.FolderName() == k2.FolderName() {
		t.Fatalf("expected differing tool args to produce differing folder names")
	}
}

func TestCacheKey_FolderName_LongKeyFallsBackToHash(t *testing.T) {
	src, _ := NewRepoPath("/repo", "/repo/a.cpp", "")
	longArgs := make([]string, 50)
	for i := range longArgs {
		longArgs[i] = "-DSOME_VERY_LONG_DEFINE_NAME_TO_BLOW_PAST_THE_LENGTH_LIMIT=1"
	}
	key := NewCacheKey(src, 100, "cc", longArgs, nil, "/repo", "/repo")

	name := key.FolderName()
	if len(name) > 250 {
		t.Fatalf("expected a bounded folder name, got %d chars", len(name))
	}
}
