package workflow

import (
	"context"
	"fmt"
	"os"
)

// CleanupResult records what cleanup removed. WindowToCloseLater is set
// when the unit's window is the one running this process; killing it
// immediately would kill us mid-cleanup.
type CleanupResult struct {
	WindowKilled       bool
	WorktreeRemoved    bool
	BranchDeleted      bool
	RemoteDeleted      bool
	WindowToCloseLater string
}

type cleanupRequest struct {
	handle       string
	path         string
	branch       string
	force        bool
	keepBranch   bool
	deleteRemote bool
}

func (r *Runner) cleanup(ctx context.Context, wctx *Context, req cleanupRequest) (*CleanupResult, error) {
	log := r.log.With("handle", req.handle, "branch", req.branch, "path", req.path)
	log.Info("cleanup:start", "force", req.force, "keep_branch", req.keepBranch)

	if err := wctx.ChdirToMainWorktree(); err != nil {
		return nil, err
	}

	result := &CleanupResult{}
	window := wctx.WindowName(req.handle)
	current, err := r.sessions.CurrentWindow(ctx)
	if err != nil {
		log.Debug("cleanup:current window unknown", "error", err)
	}
	if current != "" && current == window {
		result.WindowToCloseLater = window
	} else if exists, err := r.sessions.WindowExists(ctx, window); err == nil && exists {
		if err := r.sessions.KillWindow(ctx, window); err != nil {
			r.printf("Warning: failed to close tmux window '%s': %v\n", window, err)
		} else {
			result.WindowKilled = true
		}
	}

	if _, err := os.Stat(req.path); err == nil {
		if err := r.git.RemoveWorktree(ctx, req.path, req.force); err != nil {
			return result, err
		}
		result.WorktreeRemoved = true
	}
	if err := r.git.PruneWorktrees(ctx); err != nil {
		log.Warn("cleanup:prune failed", "error", err)
	}

	if !req.keepBranch {
		// The upstream is read from the local branch's config, so the remote
		// goes first.
		if req.deleteRemote {
			if err := r.git.DeleteRemoteBranch(ctx, req.branch); err != nil {
				r.printf("Warning: failed to delete remote branch for '%s': %v\n", req.branch, err)
			} else {
				result.RemoteDeleted = true
			}
		}
		if err := r.git.DeleteBranch(ctx, req.branch, req.force); err != nil {
			return result, fmt.Errorf("worktree removed but branch '%s' was kept: %w", req.branch, err)
		}
		result.BranchDeleted = true
		if err := r.git.UnsetBranchBase(ctx, req.branch); err != nil {
			log.Warn("cleanup:could not clear base", "error", err)
		}
	}

	log.Info("cleanup:done",
		"window_killed", result.WindowKilled,
		"worktree_removed", result.WorktreeRemoved,
		"branch_deleted", result.BranchDeleted,
		"deferred_window", result.WindowToCloseLater)
	return result, nil
}

// navigateToTargetAndClose selects targetWindow when it exists, then closes
// the source window cleanup had to leave open.
func (r *Runner) navigateToTargetAndClose(ctx context.Context, targetWindow string, result *CleanupResult) {
	if exists, err := r.sessions.WindowExists(ctx, targetWindow); err == nil && exists {
		if err := r.sessions.SelectWindow(ctx, targetWindow); err != nil {
			r.log.Warn("navigate:select failed", "window", targetWindow, "error", err)
		}
	}
	if result != nil && result.WindowToCloseLater != "" {
		if err := r.sessions.ScheduleKillWindow(ctx, result.WindowToCloseLater); err != nil {
			r.printf("Warning: failed to close tmux window '%s': %v\n", result.WindowToCloseLater, err)
		}
	}
}
