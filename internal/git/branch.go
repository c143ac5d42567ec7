package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
)

// baseConfigKey is the git config entry recording which branch a unit's
// branch was created from.
func baseConfigKey(branch string) string {
	return fmt.Sprintf("branch.%s.workmux-base", branch)
}

// BranchExists reports whether a local branch named branch exists.
func (s *Service) BranchExists(ctx context.Context, branch string) bool {
	_, err := s.output(ctx, s.dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// DeleteBranch deletes a local branch. Without force git refuses to delete
// a branch that is not merged.
func (s *Service) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if err := s.run(ctx, s.dir, "branch", flag, branch); err != nil {
		return gitErr("DeleteBranch", err, "failed to delete branch '%s'", branch)
	}
	return nil
}

// GetBranchBase returns the recorded base of branch, or "" if none was recorded.
func (s *Service) GetBranchBase(ctx context.Context, branch string) (string, error) {
	out, err := s.output(ctx, s.dir, "config", "--local", "--default", "", "--get", baseConfigKey(branch))
	if err != nil {
		return "", gitErr("GetBranchBase", err, "failed to read base of '%s'", branch)
	}
	return strings.TrimSpace(out), nil
}

// SetBranchBase records base as the branch branch was created from.
func (s *Service) SetBranchBase(ctx context.Context, branch, base string) error {
	if err := s.run(ctx, s.dir, "config", "--local", baseConfigKey(branch), base); err != nil {
		return gitErr("SetBranchBase", err, "failed to record base '%s' for '%s'", base, branch)
	}
	return nil
}

// UnsetBranchBase removes the recorded base of branch. Missing entries are
// not an error.
func (s *Service) UnsetBranchBase(ctx context.Context, branch string) error {
	key := baseConfigKey(branch)
	if v, err := s.output(ctx, s.dir, "config", "--local", "--default", "", "--get", key); err != nil || v == "" {
		return nil
	}
	if err := s.run(ctx, s.dir, "config", "--local", "--unset", key); err != nil {
		return gitErr("UnsetBranchBase", err, "failed to clear base of '%s'", branch)
	}
	return nil
}

// GetMergeBase resolves base to the ref unmerged-commit checks should compare
// against: the local branch when it exists, otherwise origin's copy.
func (s *Service) GetMergeBase(ctx context.Context, base string) (string, error) {
	for _, ref := range []string{base, "origin/" + base} {
		if _, err := s.output(ctx, s.dir, "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err == nil {
			return ref, nil
		}
	}
	return "", errors.E(errors.Op("git.GetMergeBase"), errors.KindNotFound,
		fmt.Sprintf("base '%s' does not resolve to a commit", base))
}

// GetUnmergedBranches returns the local branches with commits not reachable
// from base.
func (s *Service) GetUnmergedBranches(ctx context.Context, base string) (map[string]bool, error) {
	out, err := s.output(ctx, s.dir, "branch", "--format=%(refname:short)", "--no-merged", base)
	if err != nil {
		return nil, gitErr("GetUnmergedBranches", err, "failed to list branches not merged into '%s'", base)
	}
	unmerged := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			unmerged[name] = true
		}
	}
	return unmerged, nil
}

// GetGoneBranches returns local branches whose upstream no longer exists.
// Run FetchPrune first so remote-tracking refs are current.
func (s *Service) GetGoneBranches(ctx context.Context) (map[string]bool, error) {
	out, err := s.output(ctx, s.dir, "for-each-ref", "--format=%(refname:short)\t%(upstream:track)", "refs/heads")
	if err != nil {
		return nil, gitErr("GetGoneBranches", err, "failed to read upstream tracking state")
	}
	return parseGoneBranches(out), nil
}

func parseGoneBranches(raw string) map[string]bool {
	gone := make(map[string]bool)
	for _, line := range strings.Split(raw, "\n") {
		name, track, ok := strings.Cut(line, "\t")
		if ok && strings.TrimSpace(track) == "[gone]" {
			gone[name] = true
		}
	}
	return gone
}

// Upstream returns the remote and remote branch name branch tracks.
func (s *Service) Upstream(ctx context.Context, branch string) (remote, remoteBranch string, err error) {
	remote, err = s.output(ctx, s.dir, "config", "--get", fmt.Sprintf("branch.%s.remote", branch))
	if err != nil || remote == "" {
		return "", "", errors.E(errors.Op("git.Upstream"), errors.KindNotFound,
			fmt.Sprintf("branch '%s' has no upstream", branch))
	}
	merge, err := s.output(ctx, s.dir, "config", "--get", fmt.Sprintf("branch.%s.merge", branch))
	if err != nil || merge == "" {
		return "", "", errors.E(errors.Op("git.Upstream"), errors.KindNotFound,
			fmt.Sprintf("branch '%s' has no upstream", branch))
	}
	return remote, strings.TrimPrefix(merge, "refs/heads/"), nil
}

// DeleteRemoteBranch deletes the upstream of branch on its remote.
func (s *Service) DeleteRemoteBranch(ctx context.Context, branch string) error {
	remote, remoteBranch, err := s.Upstream(ctx, branch)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.dir, "push", remote, "--delete", remoteBranch); err != nil {
		return errors.E(errors.Op("git.DeleteRemoteBranch"), errors.KindNetwork,
			fmt.Sprintf("failed to delete '%s' on remote '%s'", remoteBranch, remote), err)
	}
	return nil
}
