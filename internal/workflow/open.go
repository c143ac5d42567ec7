package workflow

import (
	"context"

	"github.com/zhubert/workmux/internal/errors"
)

func (r *Runner) requireTmux(ctx context.Context) error {
	if !r.sessions.IsRunning(ctx) {
		return errors.E(errors.Op("workflow.RequireTmux"), errors.KindSession,
			"tmux is not running. Start a tmux session first.")
	}
	return nil
}

// Open creates a window for an existing worktree. The handle comes from the
// worktree directory, so units keep their window name even if the naming
// configuration changed after they were created.
func (r *Runner) Open(ctx context.Context, wctx *Context, branch string, opts SetupOptions) (*CreateResult, error) {
	log := r.log.With("branch", branch)
	log.Info("open:start")

	if err := r.requireTmux(ctx); err != nil {
		return nil, err
	}

	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	wt, ok := FindUnit(worktrees, branch)
	if !ok {
		return nil, errors.NoWorktree(branch)
	}
	handle := wt.Handle()

	exists, err := r.sessions.WindowExists(ctx, wctx.WindowName(handle))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.WindowExists(wctx.WindowPrefix, handle)
	}

	result, err := r.setupEnvironment(ctx, wctx, wt.Branch, handle, wt.Path, opts)
	if err != nil {
		return nil, err
	}
	log.Info("open:done", "handle", handle, "path", wt.Path)
	return result, nil
}
