package git

import "context"

// CommitWithEditor runs `git commit` attached to the terminal so git opens
// the user's editor for the message.
func (s *Service) CommitWithEditor(ctx context.Context, dir string) error {
	s.log.Debug("git commit with editor", "dir", dir)
	if err := s.executor.Interactive(ctx, dir, "git", "commit"); err != nil {
		return gitErr("CommitWithEditor", err, "commit in %s failed", dir)
	}
	return nil
}

// SwitchBranch checks out branch in the worktree at dir.
func (s *Service) SwitchBranch(ctx context.Context, dir, branch string) error {
	if err := s.run(ctx, dir, "switch", branch); err != nil {
		return gitErr("SwitchBranch", err, "failed to switch worktree at %s to '%s'", dir, branch)
	}
	return nil
}

// Merge merges branch into the branch checked out at dir. A branch that is
// already ahead of the target fast-forwards.
func (s *Service) Merge(ctx context.Context, dir, branch string) error {
	if err := s.run(ctx, dir, "merge", "--no-edit", branch); err != nil {
		return gitErr("Merge", err, "failed to merge '%s' in %s", branch, dir)
	}
	return nil
}

// MergeSquash stages the combined changes of branch at dir without committing.
func (s *Service) MergeSquash(ctx context.Context, dir, branch string) error {
	if err := s.run(ctx, dir, "merge", "--squash", branch); err != nil {
		return gitErr("MergeSquash", err, "failed to squash-merge '%s' in %s", branch, dir)
	}
	return nil
}

// Rebase rebases the branch checked out at dir onto base.
func (s *Service) Rebase(ctx context.Context, dir, base string) error {
	if err := s.run(ctx, dir, "rebase", base); err != nil {
		return gitErr("Rebase", err, "failed to rebase onto '%s' in %s", base, dir)
	}
	return nil
}

// AbortMerge abandons an in-progress merge at dir.
func (s *Service) AbortMerge(ctx context.Context, dir string) error {
	if err := s.run(ctx, dir, "merge", "--abort"); err != nil {
		return gitErr("AbortMerge", err, "failed to abort merge in %s", dir)
	}
	return nil
}

// ResetHard discards all index and tracked working tree changes at dir.
func (s *Service) ResetHard(ctx context.Context, dir string) error {
	if err := s.run(ctx, dir, "reset", "--hard", "HEAD"); err != nil {
		return gitErr("ResetHard", err, "failed to reset worktree at %s", dir)
	}
	return nil
}
