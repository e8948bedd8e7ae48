// Package uic implements cache.ToolAdapter for Qt's User Interface
// Compiler. UIC reads a self-contained XML .ui file and emits ui_<stem>.h;
// it has no external dependencies beyond the .ui file itself.
package uic

import (
	"path/filepath"
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

// DiscoverDependencies returns just the .ui file: it is self-contained XML.
func (a *Adapter) DiscoverDependencies(mainFile, repoRoot string) ([]cache.RepoPath, error) {
	mainRepoPath, err := cache.NewRepoPath(repoRoot, mainFile, repoRoot)
	if err != nil {
		return nil, err
	}
	return []cache.RepoPath{mainRepoPath}, nil
}

// OutputPatterns: an explicit -o wins, otherwise the ui_<stem>.h
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

	name := "ui_" + stem + ".h"
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
