package workflow

import (
	"context"
	"fmt"
	"os"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
)

type safetyOutcome int

const (
	// safetyProceed deletes with the decided force flag.
	safetyProceed safetyOutcome = iota
	// safetyNoOp means the user declined; nothing is touched.
	safetyNoOp
)

type safetyDecision struct {
	outcome safetyOutcome
	force   bool
}

// checkRemoveSafety runs the single-removal checks: uncommitted changes
// always block, then unmerged commits need confirmation when the branch
// is going to be deleted. force skips both.
func (r *Runner) checkRemoveSafety(ctx context.Context, wctx *Context, wt git.Worktree, opts RemoveOptions) (safetyDecision, error) {
	if opts.Force {
		return safetyDecision{outcome: safetyProceed, force: true}, nil
	}

	if !worktreeMissing(wt.Path) {
		dirty, err := r.git.HasUncommittedChanges(ctx, wt.Path)
		if err != nil {
			return safetyDecision{}, fmt.Errorf("checking for uncommitted changes in %s: %w", wt.Path, err)
		}
		if dirty {
			return safetyDecision{}, errors.UncommittedChanges()
		}
	}

	if opts.KeepBranch {
		return safetyDecision{outcome: safetyProceed}, nil
	}

	base, err := r.git.GetBranchBase(ctx, wt.Branch)
	if err != nil || base == "" {
		base = wctx.MainBranch
	}
	baseRef, err := r.git.GetMergeBase(ctx, base)
	if err != nil {
		r.printf("Warning: Could not resolve base '%s'; falling back to '%s'\n", base, wctx.MainBranch)
		baseRef, err = r.git.GetMergeBase(ctx, wctx.MainBranch)
		if err != nil {
			return safetyDecision{}, fmt.Errorf("resolving main branch '%s': %w", wctx.MainBranch, err)
		}
	}

	unmerged, err := r.git.GetUnmergedBranches(ctx, baseRef)
	if err != nil {
		return safetyDecision{}, err
	}
	if !unmerged[wt.Branch] {
		return safetyDecision{outcome: safetyProceed}, nil
	}

	r.printf("This will delete the worktree '%s', tmux window, and local branch '%s'.\n", wt.Handle(), wt.Branch)
	r.printf("Warning: Branch '%s' has commits that are not merged into '%s' (base: '%s').\n", wt.Branch, baseRef, base)
	r.println("This action cannot be undone.")
	ok, err := r.prompt.Confirm("Are you sure you want to continue?")
	if err != nil {
		return safetyDecision{}, err
	}
	if !ok {
		return safetyDecision{outcome: safetyNoOp}, nil
	}
	return safetyDecision{outcome: safetyProceed, force: true}, nil
}

// worktreeMissing reports whether a worktree's directory no longer exists.
func worktreeMissing(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
