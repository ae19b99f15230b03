// Package runner drives the whole run: target expansion, the per-file
// check-and-refactor loop and the final verdict.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"pystrict/internal/config"
	"pystrict/internal/console"
	"pystrict/internal/pytree"
	"pystrict/internal/rules"
)

// Exit codes of the command.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// Runner checks and optionally refactors a set of Python files.
type Runner struct {
	cfg     *config.Config
	console *console.Console
	rules   []rules.Rule
	ignored []string
}

// New creates a runner over cfg, reporting to cons.
func New(cfg *config.Config, cons *console.Console) *Runner {
	return &Runner{
		cfg:     cfg,
		console: cons,
		rules:   rules.All(),
		ignored: []string{".git", "venv", ".venv", "__pycache__", "node_modules"},
	}
}

// Run processes every target and returns the exit code. Targets are files,
// directories or glob patterns. A file that still has findings after the
// last pass, or that cannot be processed at all, fails the run.
func (r *Runner) Run(ctx context.Context, targets []string) (int, error) {
	files, err := r.expandTargets(targets)
	if err != nil {
		return ExitFailed, err
	}

	var failed []string
	for _, file := range files {
		if !r.processFile(ctx, file) {
			failed = append(failed, file)
		}
	}

	r.console.Summary(failed)
	if len(failed) > 0 {
		if r.cfg.RefactorAttempts > 0 {
			r.console.SuggestRerun()
		}
		return ExitFailed, nil
	}
	return ExitOK, nil
}

// expandTargets resolves files, directories and glob patterns into a
// sorted, deduplicated list of Python files.
func (r *Runner) expandTargets(targets []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		switch {
		case err == nil && info.IsDir():
			if err := r.collectDir(target, add); err != nil {
				return nil, err
			}
		case err == nil:
			add(target)
		default:
			// Not an existing path; treat it as a glob pattern.
			matches, err := filepath.Glob(target)
			if err != nil {
				return nil, err
			}
			found := false
			for _, match := range matches {
				if isPythonFile(match) {
					add(match)
					found = true
				}
			}
			// A typo in a target must not pass as an empty, successful run.
			if !found {
				return nil, fmt.Errorf("target %s matched no Python files", target)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func (r *Runner) collectDir(root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range r.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			if !r.cfg.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if isPythonFile(d.Name()) {
			add(path)
		}
		return nil
	})
}

// processFile runs the bounded check-and-refactor loop on one file. It
// reports whether the file ended up clean.
func (r *Runner) processFile(ctx context.Context, path string) bool {
	r.console.FileHeader(path)

	refactor := r.cfg.RefactorAttempts > 0
	attempts := r.cfg.RefactorAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		tree, err := pytree.Load(path)
		if err != nil {
			r.console.FileError(path, err)
			return false
		}
		if r.cfg.PrintTree && attempt == 1 {
			r.console.Tree(tree.Render())
		}

		clean, err := r.checkOnce(tree, refactor)
		if err != nil {
			r.console.FileError(path, err)
			return false
		}
		if clean {
			if r.cfg.Autoformat {
				if err := r.autoformat(ctx, path); err != nil {
					r.console.FileError(path, err)
					return false
				}
			}
			return true
		}
	}
	return false
}

// checkOnce runs every rule over a freshly parsed tree. The first finding
// of any rule stops the later rules; fixes already went into the file when
// refactoring is on.
func (r *Runner) checkOnce(tree *pytree.Tree, refactor bool) (bool, error) {
	rctx := rules.NewContext(tree, refactor, r.cfg.CustomModules)
	clean := true
	for _, rule := range r.rules {
		r.console.RuleStart(rule.Title())
		err := rule.Check(rctx)
		switch {
		case err == nil:
			r.console.RulePassed()
		case errors.Is(err, rules.ErrFindingReported):
			r.console.RuleFailed()
			clean = false
		default:
			r.console.RuleFailed()
			// Findings collected before the rule broke are still owed to
			// the user.
			if !rctx.Report().Empty() {
				r.console.Findings(rctx.Report())
			}
			return false, err
		}
		if !clean {
			break
		}
	}
	if !rctx.Report().Empty() {
		r.console.Findings(rctx.Report())
	}
	return clean, nil
}

// autoformat runs the configured formatter over one clean file.
func (r *Runner) autoformat(ctx context.Context, path string) error {
	argv := append(append([]string(nil), r.cfg.Formatter...), path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.console.Out
	cmd.Stderr = r.console.Err
	return cmd.Run()
}

func isPythonFile(name string) bool {
	return strings.HasSuffix(name, ".py")
}
