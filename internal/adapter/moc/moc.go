// Package moc implements cache.ToolAdapter for Qt's Meta-Object Compiler.
// MOC reads a header containing Q_OBJECT and emits moc_<stem>.cpp.
package moc

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

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

func (a *Adapter) CachesFailures() bool { return true }

var includeRe = regexp.MustCompile(`^\s*#\s*include\s*"([^"]+)"`)

// DiscoverDependencies scans mainFile for quoted #include directives one
// level deep. MOC's own parser only cares about the macros textually
// reachable from the header, not full preprocessor semantics, so a direct
// include scan tracks everything that can change its output.
func (a *Adapter) DiscoverDependencies(mainFile, repoRoot string) ([]cache.RepoPath, error) {
	mainRepoPath, err := cache.NewRepoPath(repoRoot, mainFile, repoRoot)
	if err != nil {
		return nil, err
	}

	deps := []cache.RepoPath{mainRepoPath}
	seen := map[string]bool{mainRepoPath.String(): true}

	for _, included := range scanQuotedIncludes(mainFile) {
		dir := filepath.Dir(mainFile)
		candidate := filepath.Join(dir, included)
		repoPath, err := cache.NewRepoPath(repoRoot, candidate, repoRoot)
		if err != nil {
			continue
		}
		if seen[repoPath.String()] {
			continue
		}
		seen[repoPath.String()] = true
		deps = append(deps, repoPath)
	}

	return deps, nil
}

func scanQuotedIncludes(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var includes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := includeRe.FindStringSubmatch(scanner.Text()); m != nil {
			includes = append(includes, m[1])
		}
	}
	return includes
}

// OutputPatterns: an explicit -o wins, otherwise the moc_<stem>.cpp
// convention applies.
func (a *Adapter) OutputPatterns(mainFile, repoRoot string) []string {
	stem := strings.TrimSuffix(filepath.Base(mainFile), filepath.Ext(mainFile))

	all := append(append([]string{}, a.ToolArgs...), a.OutputArgs...)
	for i, arg := range all {
		if arg == "-o" && i+1 < len(all) {
			abs := all[i+1]
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(repoRoot, abs)
			}
			return []string{abs, filepath.Join(filepath.Dir(abs), "**", filepath.Base(abs))}
		}
	}

	name := "moc_" + stem + ".cpp"
	return []string{filepath.Join(repoRoot, name), filepath.Join(repoRoot, "**", name)}
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
