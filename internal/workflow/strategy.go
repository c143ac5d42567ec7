package workflow

import (
	"context"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/errors"
)

// step is one fallible action of a workflow. compensate runs only when the
// step's own action fails, before onFailure maps the error.
type step struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
	onFailure  func(err error) error
}

func (r *Runner) runSteps(ctx context.Context, steps []step) error {
	for _, s := range steps {
		r.log.Debug("merge:step", "step", s.name)
		err := s.action(ctx)
		if err == nil {
			continue
		}
		r.log.Warn("merge:step failed", "step", s.name, "error", err)
		if s.compensate != nil {
			if cerr := s.compensate(ctx); cerr != nil {
				r.log.Warn("merge:compensation failed", "step", s.name, "error", cerr)
			}
		}
		if s.onFailure != nil {
			return s.onFailure(err)
		}
		return err
	}
	return nil
}

// strategySteps builds the steps that bring branch into target. Rebase
// conflicts stay in the source worktree for in-place resolution; squash and
// merge failures are undone in the target.
func (r *Runner) strategySteps(strategy config.MergeStrategy, branch, sourcePath string, target mergeTarget, retry string) []step {
	conflict := func(error) error {
		return errors.MergeConflict(sourcePath, target.branch, retry)
	}

	switch strategy {
	case config.StrategyRebase:
		return []step{
			{
				name: "rebase",
				action: func(ctx context.Context) error {
					r.printf("Rebasing '%s' onto '%s'...\n", branch, target.branch)
					return r.git.Rebase(ctx, sourcePath, target.branch)
				},
				onFailure: func(error) error {
					return errors.RebaseConflict(sourcePath)
				},
			},
			{
				name: "fast-forward",
				action: func(ctx context.Context) error {
					return r.git.Merge(ctx, target.path, branch)
				},
				onFailure: func(err error) error {
					return errors.E(errors.Op("workflow.Merge"), errors.KindGit,
						"Failed to merge rebased branch. This should have been a fast-forward.", err)
				},
			},
		}

	case config.StrategySquash:
		return []step{
			{
				name: "squash",
				action: func(ctx context.Context) error {
					return r.git.MergeSquash(ctx, target.path, branch)
				},
				compensate: func(ctx context.Context) error {
					r.log.Info("merge:squash merge failed, resetting target", "path", target.path)
					return r.git.ResetHard(ctx, target.path)
				},
				onFailure: conflict,
			},
			{
				name: "commit squash",
				action: func(ctx context.Context) error {
					r.println("Staged squashed changes. Please provide a commit message in your editor.")
					return r.git.CommitWithEditor(ctx, target.path)
				},
				onFailure: func(err error) error {
					return errors.E(errors.Op("workflow.Merge"), errors.KindGit,
						"Failed to commit squashed changes. You may need to commit them manually.", err)
				},
			},
		}

	default:
		return []step{
			{
				name: "merge",
				action: func(ctx context.Context) error {
					return r.git.Merge(ctx, target.path, branch)
				},
				compensate: func(ctx context.Context) error {
					r.log.Info("merge:merge failed, aborting in target", "path", target.path)
					return r.git.AbortMerge(ctx, target.path)
				},
				onFailure: conflict,
			},
		}
	}
}
