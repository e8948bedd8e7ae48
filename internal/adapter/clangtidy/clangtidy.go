// Package clangtidy implements cache.ToolAdapter for clang-tidy. Static
// analysis dependencies are the same translation-unit includes a compile
// would see, so dependency discovery is delegated to the cc family's -M/-MG
// preprocessor pass.
package clangtidy

import (
	"path/filepath"
	"strings"

	"quicken/internal/adapter/cc"
	"quicken/internal/cache"
)

// Adapter wraps a clang-tidy invocation. clang-tidy normally produces no
// output file; the --export-fixes=<file> flag in ToolArgs or OutputArgs is
// the one case where it does.
type Adapter struct {
	ToolPath      string
	ToolArgs      []string
	OutputArgs    []string
	InputPathArgs []string

	// compiler is used only for dependency discovery, since clang-tidy
	// analyzes the same translation unit a compile would see.
	compiler *cc.Adapter
}

func New(toolPath, compilerPath string, toolArgs, outputArgs, inputPathArgs []string) *Adapter {
	return &Adapter{
		ToolPath:      toolPath,
		ToolArgs:      toolArgs,
		OutputArgs:    outputArgs,
		InputPathArgs: inputPathArgs,
		compiler:      cc.New(compilerPath, toolArgs, nil, inputPathArgs),
	}
}

func (a *Adapter) Name() string { return filepath.Base(a.ToolPath) }

func (a *Adapter) Env() map[string]string { return nil }

// clang-tidy exiting nonzero (findings present) is a reproducible result
// worth replaying.
func (a *Adapter) CachesFailures() bool { return true }

func (a *Adapter) DiscoverDependencies(mainFile, repoRoot string) ([]cache.RepoPath, error) {
	return a.compiler.DiscoverDependencies(mainFile, repoRoot)
}

// OutputPatterns returns the --export-fixes target, if present; clang-tidy
// writes nothing else under normal operation.
func (a *Adapter) OutputPatterns(mainFile, repoRoot string) []string {
	const flag = "--export-fixes="

	all := append(append([]string{}, a.ToolArgs...), a.OutputArgs...)
	for _, arg := range all {
		if strings.HasPrefix(arg, flag) {
			fixesFile := arg[len(flag):]
			abs := fixesFile
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(repoRoot, abs)
			}
			return []string{abs, filepath.Join(filepath.Dir(abs), "**", filepath.Base(abs))}
		}
	}
	return nil
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
