// Package workflow implements the worktree lifecycle: adding, opening,
// merging and removing units of work, each a git worktree paired with a
// tmux window.
package workflow

import (
	"context"

	"github.com/zhubert/workmux/internal/git"
	"github.com/zhubert/workmux/internal/github"
)

// Git is the subset of *git.Service the workflows use.
type Git interface {
	ListWorktrees(ctx context.Context) ([]git.Worktree, error)
	GetMainWorktreeRoot(ctx context.Context) (string, error)
	GetDefaultBranch(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	BranchExists(ctx context.Context, branch string) bool

	HasUnstagedChanges(ctx context.Context, dir string) (bool, error)
	HasUntrackedFiles(ctx context.Context, dir string) (bool, error)
	HasStagedChanges(ctx context.Context, dir string) (bool, error)
	HasTrackedChanges(ctx context.Context, dir string) (bool, error)
	HasUncommittedChanges(ctx context.Context, dir string) (bool, error)

	CommitWithEditor(ctx context.Context, dir string) error
	SwitchBranch(ctx context.Context, dir, branch string) error
	Merge(ctx context.Context, dir, branch string) error
	MergeSquash(ctx context.Context, dir, branch string) error
	Rebase(ctx context.Context, dir, base string) error
	AbortMerge(ctx context.Context, dir string) error
	ResetHard(ctx context.Context, dir string) error

	GetBranchBase(ctx context.Context, branch string) (string, error)
	SetBranchBase(ctx context.Context, branch, base string) error
	UnsetBranchBase(ctx context.Context, branch string) error
	GetMergeBase(ctx context.Context, base string) (string, error)
	GetUnmergedBranches(ctx context.Context, base string) (map[string]bool, error)
	GetGoneBranches(ctx context.Context) (map[string]bool, error)

	ListRemotes(ctx context.Context) ([]string, error)
	GetRepoOwner(ctx context.Context) (string, error)
	EnsureForkRemote(ctx context.Context, owner string) (string, error)
	FetchPrune(ctx context.Context) error
	Fetch(ctx context.Context, remote, branch string) error

	CreateWorktree(ctx context.Context, path, branch string, opts git.CreateWorktreeOptions) error
	RemoveWorktree(ctx context.Context, path string, force bool) error
	PruneWorktrees(ctx context.Context) error
	DeleteBranch(ctx context.Context, branch string, force bool) error
	DeleteRemoteBranch(ctx context.Context, branch string) error
}

// Sessions is the subset of *tmux.Service the workflows use. Window names
// passed in are already prefixed.
type Sessions interface {
	IsRunning(ctx context.Context) bool
	ListWindows(ctx context.Context) ([]string, error)
	WindowExists(ctx context.Context, name string) (bool, error)
	CurrentWindow(ctx context.Context) (string, error)
	NewWindow(ctx context.Context, name, dir string, background bool) error
	SelectWindow(ctx context.Context, name string) error
	KillWindow(ctx context.Context, name string) error
	ScheduleKillWindow(ctx context.Context, name string) error
}

// PullRequests looks up pull request metadata.
type PullRequests interface {
	GetPRDetails(ctx context.Context, number int) (*github.PRDetails, error)
	FindPRByHeadRef(ctx context.Context, owner, branch string) (*github.PRDetails, error)
}

// Prompter asks the user a yes/no question. It blocks until answered.
type Prompter interface {
	Confirm(prompt string) (bool, error)
}

// Hooks runs post-create shell commands inside a worktree.
type Hooks interface {
	Run(ctx context.Context, dir, command string) error
}

// Notifier reports finished workflows to the desktop.
type Notifier interface {
	Merged(branch, target string)
	Removed(removed, failed int)
}
