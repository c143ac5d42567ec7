package workflow

import (
	"context"
	"fmt"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
)

// RemoveOptions are the inputs of Remove. With Gone set Name is ignored.
type RemoveOptions struct {
	Name         string
	Gone         bool
	Force        bool
	KeepBranch   bool
	DeleteRemote bool
}

// RemoveFailure is one unit of a batch that could not be removed.
type RemoveFailure struct {
	Branch string
	Err    error
}

// RemoveResult summarises a removal. Aborted is set when the user declined
// the confirmation prompt.
type RemoveResult struct {
	Removed []string
	Skipped []string
	Failed  []RemoveFailure
	Aborted bool
	Cleanup *CleanupResult
}

// Remove deletes one unit, or with Gone every unit whose upstream branch
// has been deleted.
func (r *Runner) Remove(ctx context.Context, wctx *Context, opts RemoveOptions) (*RemoveResult, error) {
	if opts.Gone {
		return r.removeGone(ctx, wctx, opts)
	}
	return r.removeOne(ctx, wctx, opts)
}

func (r *Runner) removeOne(ctx context.Context, wctx *Context, opts RemoveOptions) (*RemoveResult, error) {
	log := r.log.With("name", opts.Name)
	log.Info("remove:start", "force", opts.Force, "keep_branch", opts.KeepBranch)

	wt, err := r.FindWorktree(ctx, opts.Name)
	if err != nil {
		return nil, err
	}
	if wt.Path == wctx.MainWorktreeRoot {
		return nil, errors.E(errors.Op("workflow.Remove"), errors.KindInvalid, "Cannot remove the main worktree.")
	}
	handle := wt.Handle()

	decision, err := r.checkRemoveSafety(ctx, wctx, wt, opts)
	if err != nil {
		return nil, err
	}
	if decision.outcome == safetyNoOp {
		r.println("Aborted.")
		log.Info("remove:aborted by user")
		return &RemoveResult{Aborted: true}, nil
	}

	cleanup, err := r.cleanup(ctx, wctx, cleanupRequest{
		handle:       handle,
		path:         wt.Path,
		branch:       wt.Branch,
		force:        decision.force,
		keepBranch:   opts.KeepBranch || wt.Detached(),
		deleteRemote: opts.DeleteRemote,
	})
	if err != nil {
		return nil, err
	}
	if cleanup.WindowToCloseLater != "" {
		r.navigateToTargetAndClose(ctx, wctx.MainWindow(), cleanup)
	}
	log.Info("remove:done", "handle", handle)
	return &RemoveResult{Removed: []string{wt.Branch}, Cleanup: cleanup}, nil
}

// goneCandidates filters worktrees down to units whose upstream is gone.
// The main worktree, the main branch and detached units never qualify.
func goneCandidates(wctx *Context, worktrees []git.Worktree, gone map[string]bool) []git.Worktree {
	var out []git.Worktree
	for _, wt := range worktrees {
		if wt.Path == wctx.MainWorktreeRoot || wt.Branch == wctx.MainBranch || wt.Detached() {
			continue
		}
		if gone[wt.Branch] {
			out = append(out, wt)
		}
	}
	return out
}

func (r *Runner) removeGone(ctx context.Context, wctx *Context, opts RemoveOptions) (*RemoveResult, error) {
	log := r.log.With("mode", "gone")
	log.Info("remove:start", "force", opts.Force)

	if err := r.git.FetchPrune(ctx); err != nil {
		return nil, err
	}
	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	gone, err := r.git.GetGoneBranches(ctx)
	if err != nil {
		log.Warn("remove:gone branches unavailable", "error", err)
		gone = map[string]bool{}
	}

	candidates := goneCandidates(wctx, worktrees, gone)
	if len(candidates) == 0 {
		r.println("No worktrees with gone upstreams found.")
		return &RemoveResult{}, nil
	}

	result := &RemoveResult{}
	var toRemove []git.Worktree
	for _, wt := range candidates {
		if !opts.Force && !worktreeMissing(wt.Path) {
			dirty, err := r.git.HasUncommittedChanges(ctx, wt.Path)
			if err != nil {
				log.Debug("remove:status unavailable", "path", wt.Path, "error", err)
			}
			if dirty {
				result.Skipped = append(result.Skipped, wt.Branch)
				continue
			}
		}
		toRemove = append(toRemove, wt)
	}

	if len(toRemove) == 0 {
		r.println("No worktrees to remove.")
		r.printSkipped(result.Skipped)
		return result, nil
	}

	r.println("The following worktrees have gone upstreams and will be removed:")
	for _, wt := range toRemove {
		r.printf("  - %s\n", wt.Branch)
	}
	r.printSkipped(result.Skipped)

	if !opts.Force {
		ok, err := r.prompt.Confirm(fmt.Sprintf("Are you sure you want to remove %d worktree(s)?", len(toRemove)))
		if err != nil {
			return nil, err
		}
		if !ok {
			r.println("Aborted.")
			result.Aborted = true
			return result, nil
		}
	}

	var deferred *CleanupResult
	for _, wt := range toRemove {
		cleanup, err := r.cleanup(ctx, wctx, cleanupRequest{
			handle:       wt.Handle(),
			path:         wt.Path,
			branch:       wt.Branch,
			force:        true,
			keepBranch:   opts.KeepBranch,
			deleteRemote: opts.DeleteRemote,
		})
		if err != nil {
			result.Failed = append(result.Failed, RemoveFailure{Branch: wt.Branch, Err: err})
			continue
		}
		if cleanup.WindowToCloseLater != "" {
			deferred = cleanup
		}
		result.Removed = append(result.Removed, wt.Branch)
	}
	if deferred != nil {
		r.navigateToTargetAndClose(ctx, wctx.MainWindow(), deferred)
	}

	if len(result.Removed) > 0 {
		r.printf("✓ Successfully removed %d worktree(s)\n", len(result.Removed))
	}
	if len(result.Failed) > 0 {
		r.printf("Failed to remove %d worktree(s):\n", len(result.Failed))
		for _, f := range result.Failed {
			r.printf("  - %s: %s\n", f.Branch, errors.Message(f.Err))
		}
	}
	r.notify.Removed(len(result.Removed), len(result.Failed))
	log.Info("remove:done", "removed", len(result.Removed), "failed", len(result.Failed), "skipped", len(result.Skipped))
	return result, nil
}

func (r *Runner) printSkipped(skipped []string) {
	if len(skipped) == 0 {
		return
	}
	r.printf("\nSkipping %d worktree(s) with uncommitted changes:\n", len(skipped))
	for _, b := range skipped {
		r.printf("  - %s\n", b)
	}
	r.println("Use --force to remove these anyway.")
}
