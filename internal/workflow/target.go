package workflow

import (
	"context"
	"fmt"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
)

type targetKind int

const (
	targetMainWorktree targetKind = iota
	targetDedicatedWorktree
	targetNoWorktree
)

func (k targetKind) String() string {
	switch k {
	case targetMainWorktree:
		return "main worktree"
	case targetDedicatedWorktree:
		return "dedicated worktree"
	default:
		return "no worktree"
	}
}

// mergeTarget is where a merge lands. It is resolved once and read by every
// later step.
type mergeTarget struct {
	kind   targetKind
	branch string
	path   string
	window string
}

// defaultTarget picks the merge target when --into is not given: the
// recorded base of branch while it is still a local branch, else main.
func (r *Runner) defaultTarget(ctx context.Context, wctx *Context, branch string) string {
	base, err := r.git.GetBranchBase(ctx, branch)
	if err != nil {
		r.log.Debug("merge:no recorded base", "branch", branch, "error", err)
		return wctx.MainBranch
	}
	if base != "" && base != branch && r.git.BranchExists(ctx, base) {
		return base
	}
	return wctx.MainBranch
}

func (r *Runner) resolveTarget(ctx context.Context, wctx *Context, worktrees []git.Worktree, targetBranch string) (mergeTarget, error) {
	main := mergeTarget{
		kind:   targetMainWorktree,
		branch: targetBranch,
		path:   wctx.MainWorktreeRoot,
		window: wctx.MainWindow(),
	}
	if targetBranch == wctx.MainBranch {
		return main, nil
	}

	if wt, ok := findByBranch(worktrees, targetBranch); ok {
		if wt.Path == wctx.MainWorktreeRoot {
			return main, nil
		}
		return mergeTarget{
			kind:   targetDedicatedWorktree,
			branch: targetBranch,
			path:   wt.Path,
			window: wctx.WindowName(wt.Handle()),
		}, nil
	}

	if !r.git.BranchExists(ctx, targetBranch) {
		return mergeTarget{}, errors.E(errors.Op("workflow.Merge"), errors.KindNotFound,
			fmt.Sprintf("Target branch '%s' does not exist.", targetBranch))
	}
	main.kind = targetNoWorktree
	return main, nil
}
