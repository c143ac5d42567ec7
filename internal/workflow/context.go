package workflow

import (
	"context"
	"fmt"
	"os"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/tmux"
)

// Context holds the facts every workflow needs. It is resolved once per
// invocation and not modified afterwards.
type Context struct {
	MainBranch       string
	MainWorktreeRoot string
	WindowPrefix     string
	Config           *config.Config

	chdir func(dir string) error
}

// NewContext resolves the main branch and main worktree through g. A
// configured main_branch wins over detection.
func NewContext(ctx context.Context, g Git, cfg *config.Config) (*Context, error) {
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}

	root, err := g.GetMainWorktreeRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving main worktree: %w", err)
	}

	mainBranch := cfg.MainBranch
	if mainBranch == "" {
		mainBranch, err = g.GetDefaultBranch(ctx)
		if err != nil {
			return nil, fmt.Errorf("detecting main branch: %w", err)
		}
	}

	current, err := g.CurrentBranch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("reading branch of main worktree %s: %w", root, err)
	}
	if current == "HEAD" {
		return nil, errors.E(errors.Op("workflow.NewContext"), errors.KindInvalid,
			fmt.Sprintf("The main worktree at %s has no branch checked out (detached HEAD).", root))
	}

	return &Context{
		MainBranch:       mainBranch,
		MainWorktreeRoot: root,
		WindowPrefix:     cfg.WindowPrefix,
		Config:           cfg,
	}, nil
}

// WindowName returns the tmux window name of the unit with handle.
func (c *Context) WindowName(handle string) string {
	return tmux.Prefixed(c.WindowPrefix, handle)
}

// MainWindow is the window of the main worktree. It is never prefixed.
func (c *Context) MainWindow() string {
	return c.MainBranch
}

// WorktreeBase is the directory new worktrees are created in.
func (c *Context) WorktreeBase() string {
	return c.Config.WorktreeBase(c.MainWorktreeRoot)
}

// ChdirToMainWorktree moves the process into the main worktree so later
// steps never run from inside a directory being deleted.
func (c *Context) ChdirToMainWorktree() error {
	chdir := c.chdir
	if chdir == nil {
		chdir = os.Chdir
	}
	if err := chdir(c.MainWorktreeRoot); err != nil {
		return errors.E(errors.Op("workflow.ChdirToMainWorktree"), errors.KindIO,
			fmt.Sprintf("could not change directory to %s", c.MainWorktreeRoot), err)
	}
	return nil
}
