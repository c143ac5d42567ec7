package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/git"
)

// BranchRef is a resolved branch argument. Remote is empty for a plain
// local branch name.
type BranchRef struct {
	Remote string
	Branch string
}

// IsRemote reports whether the ref names a branch on a remote.
func (b BranchRef) IsRemote() bool {
	return b.Remote != ""
}

// RemoteBranch renders the remote-tracking ref, e.g. "origin/feature".
func (b BranchRef) RemoteBranch() string {
	if b.Remote == "" {
		return b.Branch
	}
	return b.Remote + "/" + b.Branch
}

// PRRef is a pull request resolved for checkout.
type PRRef struct {
	LocalBranch string
	Ref         BranchRef
}

// DetectRemoteBranch classifies arg as owner:branch, remote/branch or a
// plain branch. Nothing is fetched. baseGiven is true when --base was
// passed; a remote or fork ref already fixes the base, so the two conflict.
func (r *Runner) DetectRemoteBranch(ctx context.Context, arg string, baseGiven bool) (BranchRef, error) {
	if spec, ok := git.ParseForkBranchSpec(arg); ok {
		if baseGiven {
			return BranchRef{}, errors.BaseConflict(spec.Owner, spec.Branch)
		}
		return r.ResolveForkBranch(ctx, spec)
	}

	if spec, ok := git.ParseRemoteBranchSpec(arg); ok {
		remotes, err := r.git.ListRemotes(ctx)
		if err != nil {
			return BranchRef{}, err
		}
		if slices.Contains(remotes, spec.Remote) {
			if baseGiven {
				return BranchRef{}, errors.BaseConflict("", arg)
			}
			r.log.Debug("refs:remote branch", "remote", spec.Remote, "branch", spec.Branch)
			return BranchRef{Remote: spec.Remote, Branch: spec.Branch}, nil
		}
	}

	return BranchRef{Branch: arg}, nil
}

// ResolveForkBranch ensures a remote for the fork owner exists and returns
// the ref to check out. When a pull request for the branch can be found its
// title is shown.
func (r *Runner) ResolveForkBranch(ctx context.Context, spec git.ForkBranchSpec) (BranchRef, error) {
	if r.prs != nil {
		pr, err := r.prs.FindPRByHeadRef(ctx, spec.Owner, spec.Branch)
		switch {
		case err != nil:
			r.log.Debug("refs:pr lookup failed", "owner", spec.Owner, "branch", spec.Branch, "error", err)
		case pr != nil:
			r.printf("PR #%d: %s%s\n", pr.Number, pr.Title, pr.StateSuffix())
		}
	}

	remote, err := r.git.EnsureForkRemote(ctx, spec.Owner)
	if err != nil {
		return BranchRef{}, err
	}
	return BranchRef{Remote: remote, Branch: spec.Branch}, nil
}

// ResolvePRRef looks up pull request number and decides which local branch
// to create and which remote branch it tracks. Closed and draft PRs only
// produce warnings.
func (r *Runner) ResolvePRRef(ctx context.Context, number int, localOverride string) (PRRef, error) {
	if r.prs == nil {
		return PRRef{}, errors.CLINotFound("gh")
	}
	pr, err := r.prs.GetPRDetails(ctx, number)
	if err != nil {
		return PRRef{}, err
	}

	r.printf("PR #%d: %s\n", pr.Number, pr.Title)
	r.printf("Author: %s\n", pr.Author.Login)
	r.printf("Branch: %s\n", pr.HeadRefName)
	if pr.State != "OPEN" {
		r.printf("Warning: PR #%d is %s. Proceeding with checkout...\n", pr.Number, pr.State)
	}
	if pr.IsDraft {
		r.printf("Warning: PR #%d is a DRAFT.\n", pr.Number)
	}

	local := localOverride
	if local == "" {
		local = pr.HeadRefName
	}

	owner, err := r.git.GetRepoOwner(ctx)
	if err != nil {
		return PRRef{}, fmt.Errorf("determining repository owner: %w", err)
	}
	remote := "origin"
	if pr.IsFork(owner) {
		remote, err = r.git.EnsureForkRemote(ctx, pr.HeadRepositoryOwner.Login)
		if err != nil {
			return PRRef{}, err
		}
	}

	r.log.Info("refs:pr resolved", "number", number, "local", local, "remote", remote)
	return PRRef{
		LocalBranch: local,
		Ref:         BranchRef{Remote: remote, Branch: pr.HeadRefName},
	}, nil
}
