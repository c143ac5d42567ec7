package git

import (
	"context"
	"strings"
)

// WorktreeStatus summarizes `git status --porcelain` for one worktree.
type WorktreeStatus struct {
	Staged    []string
	Unstaged  []string
	Untracked []string
}

// HasTrackedChanges reports staged or unstaged changes to tracked files.
func (st WorktreeStatus) HasTrackedChanges() bool {
	return len(st.Staged) > 0 || len(st.Unstaged) > 0
}

// Clean reports whether there is nothing to commit and nothing untracked.
func (st WorktreeStatus) Clean() bool {
	return !st.HasTrackedChanges() && len(st.Untracked) == 0
}

// Status reads the working tree state of dir.
func (s *Service) Status(ctx context.Context, dir string) (WorktreeStatus, error) {
	out, err := s.output(ctx, dir, "status", "--porcelain")
	if err != nil {
		return WorktreeStatus{}, gitErr("Status", err, "failed to read status of worktree at %s", dir)
	}
	return parseStatus(out), nil
}

func parseStatus(raw string) WorktreeStatus {
	var st WorktreeStatus
	for _, line := range strings.Split(raw, "\n") {
		if len(line) < 4 {
			continue
		}
		x, y, file := line[0], line[1], line[3:]
		if x == '?' && y == '?' {
			st.Untracked = append(st.Untracked, file)
			continue
		}
		if x == '!' {
			continue
		}
		if x != ' ' {
			st.Staged = append(st.Staged, file)
		}
		if y != ' ' {
			st.Unstaged = append(st.Unstaged, file)
		}
	}
	return st
}

// HasUnstagedChanges reports modifications to tracked files that are not staged.
func (s *Service) HasUnstagedChanges(ctx context.Context, dir string) (bool, error) {
	st, err := s.Status(ctx, dir)
	return len(st.Unstaged) > 0, err
}

// HasUntrackedFiles reports files git does not track (ignored files excluded).
func (s *Service) HasUntrackedFiles(ctx context.Context, dir string) (bool, error) {
	st, err := s.Status(ctx, dir)
	return len(st.Untracked) > 0, err
}

// HasStagedChanges reports changes in the index that are not committed.
func (s *Service) HasStagedChanges(ctx context.Context, dir string) (bool, error) {
	st, err := s.Status(ctx, dir)
	return len(st.Staged) > 0, err
}

// HasTrackedChanges reports staged or unstaged changes, ignoring untracked files.
func (s *Service) HasTrackedChanges(ctx context.Context, dir string) (bool, error) {
	st, err := s.Status(ctx, dir)
	return st.HasTrackedChanges(), err
}

// HasUncommittedChanges reports any change at all, untracked files included.
func (s *Service) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	st, err := s.Status(ctx, dir)
	return !st.Clean(), err
}
