// Package orchestrator wires a cache.ToolAdapter to a cache.CacheStore: the
// lookup/execute/store loop that every front end (daemon-hosted or direct)
// drives for a single invocation.
package orchestrator

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"quicken/internal/adapter"
	"quicken/internal/cache"
)

// Invocation describes one tool call a front end wants executed-or-replayed.
type Invocation struct {
	Adapter       cache.ToolAdapter
	MainFile      string // absolute path to the source file / Doxyfile / .ui file
	RepoRoot      string
	ToolArgs      []string // semantic args: part of the cache key
	InputPathArgs []string // path args: part of the cache key, translated to repo-relative
}

// Result is what a front end relays back to its caller: the replayed or
// freshly captured stdout/stderr/exit code.
type Result struct {
	Stdout     string
	Stderr     string
	ReturnCode int
	CacheHit   bool
}

// Run executes Invocation against store, replaying a prior result on a
// cache hit and otherwise running the tool and storing its outcome. A
// nonzero exit is stored too when the adapter's CachesFailures allows it.
// Run never errors on a cache miss or a nonzero tool exit; err reports a
// main file outside the repo or not statable, a failed dependency
// discovery, a tool that could not be spawned (ErrToolSpawnFailed), or a
// cache I/O failure (lookup, restore or store).
func Run(store *cache.CacheStore, inv Invocation) (Result, error) {
	mainRepoPath, err := cache.NewRepoPath(inv.RepoRoot, inv.MainFile, inv.RepoRoot)
	if err != nil {
		return Result{}, fmt.Errorf("main file outside repo: %w", err)
	}

	stat, err := os.Stat(inv.MainFile)
	if err != nil {
		return Result{}, fmt.Errorf("stat main file: %w", err)
	}

	key := cache.NewCacheKey(mainRepoPath, stat.Size(), inv.Adapter.Name(), inv.ToolArgs, inv.InputPathArgs, inv.RepoRoot, inv.RepoRoot)

	entryDir, hit, err := store.Lookup(key, inv.RepoRoot)
	if err != nil {
		return Result{}, err
	}
	if hit {
		restored, err := store.Restore(entryDir, inv.RepoRoot)
		if err != nil {
			return Result{}, err
		}
		return Result{Stdout: restored.Stdout, Stderr: restored.Stderr, ReturnCode: restored.ExitCode, CacheHit: true}, nil
	}

	dependencies, err := inv.Adapter.DiscoverDependencies(inv.MainFile, inv.RepoRoot)
	if err != nil {
		return Result{}, fmt.Errorf("discovering dependencies: %w", err)
	}

	patterns := inv.Adapter.OutputPatterns(inv.MainFile, inv.RepoRoot)
	before, err := adapter.TakeSnapshot(patterns)
	if err != nil {
		return Result{}, err
	}

	cmdArgs := inv.Adapter.BuildCommand(inv.MainFile)
	stdout, stderr, returnCode, err := execTool(cmdArgs, inv.RepoRoot, inv.Adapter.Env())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", cache.ErrToolSpawnFailed, err)
	}

	after, err := adapter.TakeSnapshot(patterns)
	if err != nil {
		return Result{}, err
	}
	produced := adapter.DiffSnapshots(before, after)

	result := Result{Stdout: stdout, Stderr: stderr, ReturnCode: returnCode}

	if returnCode == 0 || inv.Adapter.CachesFailures() {
		if _, err := store.Store(cache.StoreInput{
			Key:          key,
			Dependencies: dependencies,
			Artifacts:    produced,
			Stdout:       stdout,
			Stderr:       stderr,
			ReturnCode:   returnCode,
			RepoRoot:     inv.RepoRoot,
		}); err != nil {
			return Result{}, fmt.Errorf("storing cache entry: %w", err)
		}
	}

	return result, nil
}

func execTool(cmdArgs []string, repoRoot string, env map[string]string) (stdout, stderr string, returnCode int, err error) {
	if len(cmdArgs) == 0 {
		return "", "", -1, fmt.Errorf("empty command")
	}

	toolPath := cmdArgs[0]
	if !filepath.IsAbs(toolPath) {
		if resolved, lookErr := exec.LookPath(toolPath); lookErr == nil {
			toolPath = resolved
		}
	}

	cmd := exec.Command(toolPath, cmdArgs[1:]...)
	cmd.Dir = repoRoot

	if len(env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return outBuf.String(), errBuf.String(), exitErr.ExitCode(), nil
		}
		return "", "", -1, runErr
	}

	return outBuf.String(), errBuf.String(), 0, nil
}
