// Package doxygen implements cache.ToolAdapter for the doxygen
// documentation generator. Its "source file" is a Doxyfile; its dependencies
// are every C/C++ source and header under the repo (doxygen has no
// dependency-listing mode of its own).
package doxygen

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"quicken/internal/cache"
)

type Adapter struct {
	ToolPath      string
	ToolArgs      []string
	OutputArgs    []string
	InputPathArgs []string
}

func New(toolPath string, toolArgs, outputArgs, inputPathArgs []string) *Adapter {
	return &Adapter{ToolPath: toolPath, ToolArgs: toolArgs, OutputArgs: outputArgs, InputPathArgs: inputPathArgs}
}

func (a *Adapter) Name() string { return filepath.Base(a.ToolPath) }

func (a *Adapter) Env() map[string]string { return nil }

// A whole-repo documentation run is expensive and its failures are often
// environmental (missing dot, broken Doxyfile include); don't replay them.
func (a *Adapter) CachesFailures() bool { return false }

var sourceGlobs = []string{"**/*.cpp", "**/*.h", "**/*.hpp"}

// DiscoverDependencies includes the Doxyfile itself plus every source/header
// file under the repo: any of them can affect generated documentation.
func (a *Adapter) DiscoverDependencies(mainFile, repoRoot string) ([]cache.RepoPath, error) {
	mainRepoPath, err := cache.NewRepoPath(repoRoot, mainFile, repoRoot)
	if err != nil {
		return nil, err
	}

	deps := []cache.RepoPath{mainRepoPath}
	seen := map[string]bool{mainRepoPath.String(): true}

	for _, pattern := range sourceGlobs {
		matches, err := doublestar.Glob(os.DirFS(repoRoot), pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			repoPath, err := cache.NewRepoPath(repoRoot, filepath.Join(repoRoot, m), repoRoot)
			if err != nil {
				continue
			}
			if seen[repoPath.String()] {
				continue
			}
			seen[repoPath.String()] = true
			deps = append(deps, repoPath)
		}
	}

	return deps, nil
}

// OutputPatterns parses the Doxyfile for OUTPUT_DIRECTORY; falling back to
// doxygen's documented xml/html/latex defaults when absent.
func (a *Adapter) OutputPatterns(mainFile, repoRoot string) []string {
	doxyfilePath := mainFile
	if !filepath.IsAbs(doxyfilePath) {
		doxyfilePath = filepath.Join(repoRoot, mainFile)
	}

	if outputDir := parseOutputDirectory(doxyfilePath); outputDir != "" {
		abs := outputDir
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(repoRoot, abs)
		}
		return []string{filepath.Join(abs, "**", "*")}
	}

	return []string{
		filepath.Join(repoRoot, "xml", "**", "*"),
		filepath.Join(repoRoot, "html", "**", "*"),
		filepath.Join(repoRoot, "latex", "**", "*"),
	}
}

func parseOutputDirectory(doxyfilePath string) string {
	f, err := os.Open(doxyfilePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "OUTPUT_DIRECTORY") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		return strings.Trim(strings.TrimSpace(parts[1]), `"`)
	}
	return ""
}

func (a *Adapter) BuildCommand(mainFile string) []string {
	cmd := make([]string, 0, 2+len(a.ToolArgs)+len(a.InputPathArgs)+len(a.OutputArgs))
	cmd = append(cmd, a.ToolPath)
	cmd = append(cmd, a.ToolArgs...)
	cmd = append(cmd, a.InputPathArgs...)
	cmd = append(cmd, mainFile)
	cmd = append(cmd, a.OutputArgs...)
	return cmd
}
