package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// mainCppPath creates a real file named "main.cpp" in a fresh temp directory
// and returns its absolute path; parseInvocation only recognizes a
// mainFile candidate via looksLikeExistingFile, which stats the path.
func mainCppPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp")
	if err := os.WriteFile(path, []byte("int main() {}"), 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseInvocation_ClassifiesIncludeFlagAsInputPathArg(t *testing.T) {
	main := mainCppPath(t)
	argv := []string{"cachewrap", "/usr/bin/g++", "-c", "-I", "/usr/local/include", main, "-o", "main.o"}

	_, _, toolArgs, mainFile, inputPathArgs, outputArgs := parseInvocation(argv)

	if mainFile != main {
		t.Fatalf("mainFile = %q, want %q", mainFile, main)
	}
	if !reflect.DeepEqual(toolArgs, []string{"-c"}) {
		t.Fatalf("toolArgs = %v, want [-c]", toolArgs)
	}
	if !reflect.DeepEqual(inputPathArgs, []string{"-I", "/usr/local/include"}) {
		t.Fatalf("inputPathArgs = %v, want [-I /usr/local/include]", inputPathArgs)
	}
	if !reflect.DeepEqual(outputArgs, []string{"-o", "main.o"}) {
		t.Fatalf("outputArgs = %v, want [-o main.o]", outputArgs)
	}
}

func TestParseInvocation_ClassifiesIncludeFlagConcatenatedForm(t *testing.T) {
	main := mainCppPath(t)
	argv := []string{"cachewrap", "/usr/bin/g++", "-c", "-I/usr/local/include", main}

	_, _, _, _, inputPathArgs, _ := parseInvocation(argv)

	if !reflect.DeepEqual(inputPathArgs, []string{"-I", "/usr/local/include"}) {
		t.Fatalf("inputPathArgs = %v, want [-I /usr/local/include]", inputPathArgs)
	}
}

func TestParseInvocation_ClassifiesIncludeFlagWithAbsolutePath(t *testing.T) {
	main := mainCppPath(t)
	argv := []string{"cachewrap", "/usr/bin/g++", "-include", "/opt/vendor/config.h", "-c", main}

	_, _, toolArgs, mainFile, inputPathArgs, _ := parseInvocation(argv)

	if mainFile != main {
		t.Fatalf("mainFile = %q, want %q", mainFile, main)
	}
	if !reflect.DeepEqual(toolArgs, []string{"-c"}) {
		t.Fatalf("toolArgs = %v, want [-c], -include's path must not leak into toolArgs", toolArgs)
	}
	if !reflect.DeepEqual(inputPathArgs, []string{"-include", "/opt/vendor/config.h"}) {
		t.Fatalf("inputPathArgs = %v, want [-include /opt/vendor/config.h]", inputPathArgs)
	}
}

func TestParseInvocation_XclangInterleavedInclude(t *testing.T) {
	main := mainCppPath(t)
	argv := []string{"cachewrap", "/usr/bin/clang++", "-Xclang", "-include", "-Xclang", "prefix.h", main}

	_, _, toolArgs, _, inputPathArgs, _ := parseInvocation(argv)

	// The leading "-Xclang" before "-include" isn't one of our recognized
	// keys, so it falls through to toolArgs; parseInputPathFlag then
	// recognizes "-include" and unwraps the trailing "-Xclang prefix.h" pair.
	if !reflect.DeepEqual(toolArgs, []string{"-Xclang"}) {
		t.Fatalf("toolArgs = %v, want [-Xclang]", toolArgs)
	}
	if !reflect.DeepEqual(inputPathArgs, []string{"-include", "-Xclang", "prefix.h"}) {
		t.Fatalf("inputPathArgs = %v, want [-include -Xclang prefix.h]", inputPathArgs)
	}
}

func TestParseInvocation_NoIncludeFlagsLeavesInputPathArgsNil(t *testing.T) {
	main := mainCppPath(t)
	argv := []string{"cachewrap", "/usr/bin/g++", "-c", main, "-o", "main.o"}

	_, _, _, _, inputPathArgs, _ := parseInvocation(argv)

	if inputPathArgs != nil {
		t.Fatalf("inputPathArgs = %v, want nil", inputPathArgs)
	}
}
