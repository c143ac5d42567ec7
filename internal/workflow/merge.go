package workflow

import (
	"context"
	"fmt"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/errors"
)

// MergeOptions are the inputs of Merge. Rebase and Squash are mutually
// exclusive; with neither set the configured strategy is used.
type MergeOptions struct {
	Name              string
	Into              string
	IgnoreUncommitted bool
	Rebase            bool
	Squash            bool
	Keep              bool
	DeleteRemote      bool
}

// MergeResult reports a successful merge.
type MergeResult struct {
	BranchMerged     string
	TargetBranch     string
	HadStagedChanges bool
}

func (o MergeOptions) strategy(configured config.MergeStrategy) (config.MergeStrategy, error) {
	switch {
	case o.Rebase && o.Squash:
		return "", errors.E(errors.Op("workflow.Merge"), errors.KindInvalid, "--rebase and --squash cannot be used together.")
	case o.Rebase:
		return config.StrategyRebase, nil
	case o.Squash:
		return config.StrategySquash, nil
	case configured.Valid():
		return configured, nil
	default:
		return config.StrategyMerge, nil
	}
}

// Merge merges the unit name into its target branch and, unless Keep is
// set, removes the unit. Guards run before anything is modified; a failed
// squash or merge leaves the target worktree as it was.
func (r *Runner) Merge(ctx context.Context, wctx *Context, opts MergeOptions) (*MergeResult, error) {
	log := r.log.With("name", opts.Name)
	log.Info("merge:start", "into", opts.Into)

	strategy, err := opts.strategy(wctx.Config.MergeStrategy)
	if err != nil {
		return nil, err
	}
	if err := wctx.ChdirToMainWorktree(); err != nil {
		return nil, err
	}

	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	source, ok := FindUnit(worktrees, opts.Name)
	if !ok {
		return nil, errors.WorktreeNotFound(opts.Name)
	}
	if source.Detached() {
		return nil, errors.E(errors.Op("workflow.Merge"), errors.KindInvalid,
			fmt.Sprintf("Worktree at %s has no branch checked out.", source.Path))
	}
	handle := source.Handle()
	branch := source.Branch
	log = log.With("handle", handle, "branch", branch, "strategy", string(strategy))

	targetBranch := opts.Into
	if targetBranch == "" {
		targetBranch = r.defaultTarget(ctx, wctx, branch)
	}
	if branch == targetBranch {
		return nil, errors.SelfMerge(branch)
	}
	if source.Path == wctx.MainWorktreeRoot {
		return nil, errors.E(errors.Op("workflow.Merge"), errors.KindInvalid,
			fmt.Sprintf("'%s' is checked out in the main worktree and cannot be merged and removed.", branch))
	}

	target, err := r.resolveTarget(ctx, wctx, worktrees, targetBranch)
	if err != nil {
		return nil, err
	}
	log.Debug("merge:target resolved", "target", target.branch, "kind", target.kind.String(), "path", target.path)

	if !opts.IgnoreUncommitted {
		if err := r.checkSourceClean(ctx, branch, source.Path); err != nil {
			return nil, err
		}
	}

	result := &MergeResult{BranchMerged: branch, TargetBranch: target.branch}
	staged, err := r.git.HasStagedChanges(ctx, source.Path)
	if err != nil {
		return nil, fmt.Errorf("checking staged changes in %s: %w", source.Path, err)
	}
	result.HadStagedChanges = staged
	if staged && !opts.IgnoreUncommitted {
		r.println("Committing staged changes. Please provide a commit message in your editor.")
		if err := r.git.CommitWithEditor(ctx, source.Path); err != nil {
			return nil, fmt.Errorf("committing staged changes in %s: %w", source.Path, err)
		}
		log.Debug("merge:staged changes committed")
	}

	dirty, err := r.git.HasTrackedChanges(ctx, target.path)
	if err != nil {
		return nil, fmt.Errorf("checking target worktree %s: %w", target.path, err)
	}
	if dirty {
		return nil, errors.DirtyTarget(target.path)
	}

	if err := r.git.SwitchBranch(ctx, target.path, target.branch); err != nil {
		return nil, err
	}

	retry := "workmux merge " + handle
	if opts.Name != "" {
		retry = "workmux merge " + opts.Name
	}
	if opts.Into != "" {
		retry += " --into " + opts.Into
	}
	if err := r.runSteps(ctx, r.strategySteps(strategy, branch, source.Path, target, retry)); err != nil {
		return nil, err
	}
	log.Info("merge:merged", "target", target.branch)

	if opts.Keep {
		log.Info("merge:keeping unit")
		return result, nil
	}

	cleanup, err := r.cleanup(ctx, wctx, cleanupRequest{
		handle:       handle,
		path:         source.Path,
		branch:       branch,
		force:        true,
		deleteRemote: opts.DeleteRemote,
	})
	if err != nil {
		return nil, err
	}
	r.navigateToTargetAndClose(ctx, target.window, cleanup)
	r.notify.Merged(branch, target.branch)
	log.Info("merge:done")
	return result, nil
}

func (r *Runner) checkSourceClean(ctx context.Context, branch, path string) error {
	unstaged, err := r.git.HasUnstagedChanges(ctx, path)
	if err != nil {
		return fmt.Errorf("checking unstaged changes in %s: %w", path, err)
	}
	untracked, err := r.git.HasUntrackedFiles(ctx, path)
	if err != nil {
		return fmt.Errorf("checking untracked files in %s: %w", path, err)
	}

	var issues []string
	if unstaged {
		issues = append(issues, "unstaged changes")
	}
	if untracked {
		issues = append(issues, "untracked files (will be lost)")
	}
	if len(issues) > 0 {
		return errors.DirtySource(branch, issues)
	}
	return nil
}
