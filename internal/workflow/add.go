package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
	"github.com/zhubert/workmux/internal/naming"
)

// AddOptions are the inputs of Add. Branch may be a local name,
// remote/branch or owner:branch. With PR set, Branch optionally overrides
// the local branch name.
type AddOptions struct {
	Branch     string
	Base       string
	Name       string
	PR         int
	Background bool
}

// Add creates a worktree and its window, creating or fetching the branch
// as needed, then runs environment setup.
func (r *Runner) Add(ctx context.Context, wctx *Context, opts AddOptions) (*CreateResult, error) {
	log := r.log.With("branch", opts.Branch, "pr", opts.PR)
	log.Info("add:start")

	if err := r.requireTmux(ctx); err != nil {
		return nil, err
	}

	var (
		local string
		ref   BranchRef
	)
	if opts.PR > 0 {
		if opts.Base != "" {
			return nil, errors.E(errors.Op("workflow.Add"), errors.KindInvalid,
				"Cannot use --base with --pr. The pull request's branch will be used as the base.")
		}
		prRef, err := r.ResolvePRRef(ctx, opts.PR, opts.Branch)
		if err != nil {
			return nil, err
		}
		local, ref = prRef.LocalBranch, prRef.Ref
	} else {
		var err error
		ref, err = r.DetectRemoteBranch(ctx, opts.Branch, opts.Base != "")
		if err != nil {
			return nil, err
		}
		local = ref.Branch
	}

	handle, err := naming.DeriveHandle(local, opts.Name)
	if err != nil {
		return nil, err
	}
	log = log.With("handle", handle)

	worktrees, err := r.git.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	if wt, ok := findByBranch(worktrees, local); ok {
		return nil, errors.E(errors.Op("workflow.Add"), errors.KindConflict,
			fmt.Sprintf("A worktree for branch '%s' already exists at %s. Use 'workmux open %s' to open it.", local, wt.Path, local))
	}

	path := filepath.Join(wctx.WorktreeBase(), handle)
	if _, err := os.Stat(path); err == nil {
		return nil, errors.E(errors.Op("workflow.Add"), errors.KindConflict,
			fmt.Sprintf("Directory %s already exists. Use --name to pick a different handle.", path))
	}

	exists, err := r.sessions.WindowExists(ctx, wctx.WindowName(handle))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.WindowExists(wctx.WindowPrefix, handle)
	}

	base, err := r.createWorktree(ctx, path, local, ref, opts.Base)
	if err != nil {
		return nil, err
	}
	log.Info("add:worktree created", "path", path, "base", base)

	if base != "" {
		if err := r.git.SetBranchBase(ctx, local, base); err != nil {
			log.Warn("add:could not record base", "error", err)
		}
	}

	result, err := r.setupEnvironment(ctx, wctx, local, handle, path, SetupOptions{
		RunHooks:   true,
		RunFileOps: true,
		Background: opts.Background,
	})
	if err != nil {
		return nil, err
	}
	log.Info("add:done")
	return result, nil
}

// createWorktree checks out local at path. It returns the base to record
// for a newly created branch, or "" when an existing branch was used.
func (r *Runner) createWorktree(ctx context.Context, path, local string, ref BranchRef, base string) (string, error) {
	if ref.IsRemote() {
		if err := r.git.Fetch(ctx, ref.Remote, ref.Branch); err != nil {
			return "", err
		}
		if r.git.BranchExists(ctx, local) {
			return "", r.git.CreateWorktree(ctx, path, local, git.CreateWorktreeOptions{})
		}
		return ref.RemoteBranch(), r.git.CreateWorktree(ctx, path, local, git.CreateWorktreeOptions{
			NewBranch:  true,
			StartPoint: ref.RemoteBranch(),
			Track:      true,
		})
	}

	if r.git.BranchExists(ctx, local) {
		return "", r.git.CreateWorktree(ctx, path, local, git.CreateWorktreeOptions{})
	}

	if base == "" {
		current, err := r.git.CurrentBranch(ctx, "")
		if err != nil {
			return "", err
		}
		if current == "HEAD" {
			return "", errors.E(errors.Op("workflow.Add"), errors.KindInvalid,
				"Cannot create a branch from a detached HEAD. Pass --base.")
		}
		base = current
	}
	return base, r.git.CreateWorktree(ctx, path, local, git.CreateWorktreeOptions{
		NewBranch:  true,
		StartPoint: base,
	})
}
