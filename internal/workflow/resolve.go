package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
)

// Unit is one worktree together with the state of its tmux window. Units
// are rebuilt from live git and tmux listings on every call.
type Unit struct {
	Handle     string
	Branch     string
	Path       string
	Window     string
	WindowOpen bool
	Main       bool
}

// FindUnit looks name up among worktrees, first by handle (directory name)
// and then by branch.
func FindUnit(worktrees []git.Worktree, name string) (git.Worktree, bool) {
	for _, wt := range worktrees {
		if wt.Handle() == name {
			return wt, true
		}
	}
	for _, wt := range worktrees {
		if wt.Branch == name {
			return wt, true
		}
	}
	return git.Worktree{}, false
}

// findByBranch returns the worktree that has branch checked out.
func findByBranch(worktrees []git.Worktree, branch string) (git.Worktree, bool) {
	for _, wt := range worktrees {
		if wt.Branch == branch {
			return wt, true
		}
	}
	return git.Worktree{}, false
}

// UnitForDir returns the worktree containing dir. Nested worktrees resolve
// to the innermost one.
func UnitForDir(worktrees []git.Worktree, dir string) (git.Worktree, bool) {
	dir = cleanPath(dir)
	var best git.Worktree
	found := false
	for _, wt := range worktrees {
		rel, err := filepath.Rel(cleanPath(wt.Path), dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(wt.Path) > len(best.Path) {
			best, found = wt, true
		}
	}
	return best, found
}

func cleanPath(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}

// ResolveUnits pairs worktrees with the open windows list. The main
// worktree maps to the unprefixed main window.
func ResolveUnits(wctx *Context, worktrees []git.Worktree, windows []string) []Unit {
	open := make(map[string]bool, len(windows))
	for _, w := range windows {
		open[w] = true
	}

	units := make([]Unit, 0, len(worktrees))
	for _, wt := range worktrees {
		u := Unit{
			Handle: wt.Handle(),
			Branch: wt.Branch,
			Path:   wt.Path,
			Main:   wt.Path == wctx.MainWorktreeRoot,
		}
		if u.Main {
			u.Window = wctx.MainWindow()
		} else {
			u.Window = wctx.WindowName(u.Handle)
		}
		u.WindowOpen = open[u.Window]
		units = append(units, u)
	}
	return units
}

// ListUnits returns every unit, main worktree first. A tmux server that is
// not running means every window is closed.
func (r *Runner) ListUnits(ctx context.Context, wctx *Context) ([]Unit, error) {
	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	var windows []string
	if r.sessions.IsRunning(ctx) {
		windows, err = r.sessions.ListWindows(ctx)
		if err != nil {
			r.log.Warn("list:windows unavailable", "error", err)
		}
	}
	return ResolveUnits(wctx, worktrees, windows), nil
}

// FindWorktree resolves name to a worktree by handle or branch.
func (r *Runner) FindWorktree(ctx context.Context, name string) (git.Worktree, error) {
	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return git.Worktree{}, err
	}
	wt, ok := FindUnit(worktrees, name)
	if !ok {
		return git.Worktree{}, errors.WorktreeNotFound(name)
	}
	return wt, nil
}

// NameFromDir returns the handle of the unit containing dir. It fails for
// the main worktree and for directories outside any worktree.
func (r *Runner) NameFromDir(ctx context.Context, wctx *Context, dir string) (string, error) {
	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return "", err
	}
	wt, ok := UnitForDir(worktrees, dir)
	if !ok || wt.Path == wctx.MainWorktreeRoot {
		return "", errors.E(errors.Op("workflow.NameFromDir"), errors.KindInvalid,
			"Not inside a workmux worktree. Pass the worktree name explicitly.")
	}
	return wt.Handle(), nil
}
