package clangtidy

import (
	"path/filepath"
	"testing"
)

func TestOutputPatterns_ParsesExportFixes(t *testing.T) {
	a := New("/usr/bin/clang-tidy", "/usr/bin/clang++", []string{"--export-fixes=fixes.yaml"}, nil, nil)
	got := a.OutputPatterns("/repo/a.cpp", "/repo")
	if got[0] != filepath.Join("/repo", "fixes.yaml") {
		t.Fatalf("expected fixes.yaml target, got %v", got)
	}
}

func TestOutputPatterns_NilWithoutExportFixes(t *testing.T) {
	a := New("/usr/bin/clang-tidy", "/usr/bin/clang++", nil, nil, nil)
	got := a.OutputPatterns("/repo/a.cpp", "/repo")
	if got != nil {
		t.Fatalf("expected nil output patterns without --export-fixes, got %v", got)
	}
}

func TestBuildCommand_UsesClangTidyToolPath(t *testing.T) {
	a := New("/usr/bin/clang-tidy", "/usr/bin/clang++", []string{"-checks=*"}, nil, nil)
	got := a.BuildCommand("/repo/a.cpp")
	if got[0] != "/usr/bin/clang-tidy" {
		t.Fatalf("expected clang-tidy as the invoked tool, got %s", got[0])
	}
}
