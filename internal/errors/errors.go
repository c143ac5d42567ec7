// Package errors provides structured error types for workmux.
// Every error carries the operation that failed and a Kind that lets the
// CLI decide how to present it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindSafety
	KindConflict
	KindIO
	KindNetwork
	KindConfig
	KindGit
	KindSession
	KindAborted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindSafety:
		return "safety check failed"
	case KindConflict:
		return "conflict"
	case KindIO:
		return "I/O error"
	case KindNetwork:
		return "network error"
	case KindConfig:
		return "configuration error"
	case KindGit:
		return "git error"
	case KindSession:
		return "tmux error"
	case KindAborted:
		return "aborted"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for workmux.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the innermost human-facing message of err, without the
// Op prefixes stacked by nested Errors. Used by the CLI when printing.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var parts []string
	for {
		var e *Error
		if !errors.As(err, &e) {
			parts = append(parts, err.Error())
			break
		}
		if e.Context != "" {
			parts = append(parts, e.Context)
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return strings.Join(parts, ": ")
}

// Handle errors

func InvalidHandle(handle, reason string) error {
	return E(Op("naming.DeriveHandle"), KindInvalid, fmt.Sprintf("invalid handle '%s': %s", handle, reason))
}

// Worktree lookup errors

func NoWorktree(branch string) error {
	return E(Op("workflow.Open"), KindNotFound,
		fmt.Sprintf("No worktree found for branch '%s'. Use 'workmux add %s' to create it.", branch, branch))
}

func WorktreeNotFound(name string) error {
	return E(Op("git.FindWorktree"), KindNotFound, fmt.Sprintf("no worktree found with name '%s'", name))
}

func WindowExists(prefix, handle string) error {
	return E(Op("workflow.Open"), KindSession,
		fmt.Sprintf("A tmux window named '%s%s' already exists. To switch to it, run: tmux select-window -t '%s%s'",
			prefix, handle, prefix, handle))
}

// Ref resolution errors

// BaseConflict reports --base combined with a ref that already determines
// the base. owner is empty for remote/branch refs.
func BaseConflict(owner, branch string) error {
	if owner != "" {
		return E(Op("workflow.DetectRemoteBranch"), KindInvalid,
			fmt.Sprintf("Cannot use --base with 'owner:branch' syntax. The branch '%s' from '%s' will be used as the base.", branch, owner))
	}
	return E(Op("workflow.DetectRemoteBranch"), KindInvalid,
		fmt.Sprintf("Cannot use --base with a remote branch reference. The remote branch '%s' will be used as the base.", branch))
}

// Merge safety errors

func SelfMerge(branch string) error {
	return E(Op("workflow.Merge"), KindSafety, fmt.Sprintf("Cannot merge branch '%s' into itself.", branch))
}

// DirtySource reports unstaged changes or untracked files in the worktree
// being merged. issues is the list of detected problems.
func DirtySource(branch string, issues []string) error {
	return E(Op("workflow.Merge"), KindSafety,
		fmt.Sprintf("Worktree for '%s' has %s. Please stage or stash them, or use --ignore-uncommitted.",
			branch, strings.Join(issues, " and ")))
}

func DirtyTarget(path string) error {
	return E(Op("workflow.Merge"), KindSafety,
		fmt.Sprintf("Target worktree (%s) has uncommitted changes. Please commit or stash them before merging.", path))
}

func UncommittedChanges() error {
	return E(Op("workflow.Remove"), KindSafety, "Worktree has uncommitted changes. Use --force to delete anyway.")
}

// Merge conflict errors

// MergeConflict reports a squash or merge that was rolled back. retry is the
// command the user should run once the branch is updated.
func MergeConflict(worktreePath, target, retry string) error {
	return E(Op("workflow.Merge"), KindConflict,
		fmt.Sprintf("Merge failed due to conflicts. Target worktree kept clean.\n\n"+
			"To resolve, update your branch in worktree at %s:\n"+
			"  git rebase %s  (recommended)\n"+
			"Or:\n"+
			"  git merge %s\n\n"+
			"After resolving conflicts, retry: %s", worktreePath, target, target, retry))
}

func RebaseConflict(worktreePath string) error {
	return E(Op("workflow.Merge"), KindConflict,
		fmt.Sprintf("Rebase failed, likely due to conflicts.\n\n"+
			"Please resolve them manually inside the worktree at '%s'.\n"+
			"Then, run 'git rebase --continue' to proceed or 'git rebase --abort' to cancel.", worktreePath))
}

// Config errors

func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindConfig, reason)
}

// Git errors

func GitNotRepo(path string) error {
	return E(Op("git.ValidateRepo"), KindInvalid, fmt.Sprintf("%s is not a git repository", path))
}

func GitWorktreeFailed(branch string, err error) error {
	return E(Op("git.CreateWorktree"), KindGit, fmt.Sprintf("failed to create worktree for branch %s", branch), err)
}

// Prompt errors

func Aborted(what string) error {
	return E(Op("workflow.Confirm"), KindAborted, fmt.Sprintf("%s aborted by user", what))
}

// CLI prerequisite errors

func CLINotFound(name string) error {
	return E(Op("cli.Check"), KindNotFound, fmt.Sprintf("required CLI tool '%s' not found in PATH", name))
}
