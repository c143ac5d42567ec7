package git

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
)

// DetachedBranch is the Branch value of a worktree in detached-HEAD state.
const DetachedBranch = "(detached)"

// Worktree is one entry of `git worktree list`.
type Worktree struct {
	Path   string
	Branch string
	Head   string
}

// Handle returns the worktree's directory name, which is the unit's handle.
func (w Worktree) Handle() string {
	return filepath.Base(w.Path)
}

// Detached reports whether the worktree has no branch checked out.
func (w Worktree) Detached() bool {
	return w.Branch == DetachedBranch
}

// ListWorktrees returns every non-bare worktree. git always lists the main
// worktree first.
func (s *Service) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := s.output(ctx, s.dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, gitErr("ListWorktrees", err, "failed to list worktrees")
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(raw string) []Worktree {
	var worktrees []Worktree
	for _, block := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		var wt Worktree
		bare := false
		for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
			switch {
			case strings.HasPrefix(line, "worktree "):
				wt.Path = strings.TrimPrefix(line, "worktree ")
			case strings.HasPrefix(line, "HEAD "):
				wt.Head = strings.TrimPrefix(line, "HEAD ")
			case strings.HasPrefix(line, "branch "):
				wt.Branch = strings.TrimPrefix(line, "branch refs/heads/")
			case line == "detached":
				wt.Branch = DetachedBranch
			case line == "bare":
				bare = true
			}
		}
		if wt.Path == "" || bare {
			continue
		}
		if wt.Branch == "" {
			wt.Branch = DetachedBranch
		}
		worktrees = append(worktrees, wt)
	}
	return worktrees
}

// GetMainWorktreeRoot returns the path of the main worktree.
func (s *Service) GetMainWorktreeRoot(ctx context.Context) (string, error) {
	worktrees, err := s.ListWorktrees(ctx)
	if err != nil {
		return "", err
	}
	if len(worktrees) == 0 {
		return "", errors.E(errors.Op("git.GetMainWorktreeRoot"), errors.KindGit, "git reported no worktrees")
	}
	return worktrees[0].Path, nil
}

// CreateWorktreeOptions controls how CreateWorktree checks out the branch.
type CreateWorktreeOptions struct {
	// NewBranch creates Branch from StartPoint instead of checking out an
	// existing branch.
	NewBranch  bool
	StartPoint string
	// Track sets StartPoint (a remote-tracking ref) as the new branch's upstream.
	Track bool
}

// CreateWorktree adds a worktree at path for branch.
func (s *Service) CreateWorktree(ctx context.Context, path, branch string, opts CreateWorktreeOptions) error {
	args := []string{"worktree", "add"}
	if opts.NewBranch {
		if opts.Track {
			args = append(args, "--track")
		}
		args = append(args, "-b", branch, path)
		if opts.StartPoint != "" {
			args = append(args, opts.StartPoint)
		}
	} else {
		args = append(args, path, branch)
	}
	if err := s.run(ctx, s.dir, args...); err != nil {
		return errors.GitWorktreeFailed(branch, err)
	}
	return nil
}

// RemoveWorktree deletes the worktree at path. force also discards
// uncommitted changes.
func (s *Service) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if err := s.run(ctx, s.dir, args...); err != nil {
		return gitErr("RemoveWorktree", err, "failed to remove worktree at %s", path)
	}
	return nil
}

// PruneWorktrees drops administrative entries for worktrees whose
// directories no longer exist.
func (s *Service) PruneWorktrees(ctx context.Context) error {
	if err := s.run(ctx, s.dir, "worktree", "prune"); err != nil {
		return gitErr("PruneWorktrees", err, "failed to prune worktrees")
	}
	return nil
}
