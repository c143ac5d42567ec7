// Package git implements the git operations workmux needs on top of the git
// CLI. Every command goes through an exec.CommandExecutor so tests can script
// git's responses.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
	pexec "github.com/zhubert/workmux/internal/exec"
	"github.com/zhubert/workmux/internal/logger"
)

// Service runs git commands. Repository-level commands run in dir; an empty
// dir means the process working directory, which is what the CLI wants
// because workflows chdir to the main worktree before destructive steps.
type Service struct {
	dir      string
	executor pexec.CommandExecutor
	log      *slog.Logger
}

// NewService returns a Service backed by real git processes.
func NewService(dir string) *Service {
	return NewServiceWithExecutor(dir, pexec.NewRealExecutor())
}

// NewServiceWithExecutor returns a Service that runs commands through executor.
func NewServiceWithExecutor(dir string, executor pexec.CommandExecutor) *Service {
	return &Service{
		dir:      dir,
		executor: executor,
		log:      logger.ComponentLogger("git"),
	}
}

// output runs git in dir and returns trimmed stdout.
func (s *Service) output(ctx context.Context, dir string, args ...string) (string, error) {
	s.log.Debug("git", "dir", dir, "args", args)
	out, err := s.executor.Output(ctx, dir, "git", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}

// run runs git in dir, discarding stdout.
func (s *Service) run(ctx context.Context, dir string, args ...string) error {
	s.log.Debug("git", "dir", dir, "args", args)
	_, err := s.executor.CombinedOutput(ctx, dir, "git", args...)
	return err
}

func gitErr(op string, err error, format string, args ...any) error {
	return errors.E(errors.Op("git."+op), errors.KindGit, fmt.Sprintf(format, args...), err)
}

// RepoRoot returns the top level of the worktree containing dir.
func (s *Service) RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := s.output(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		if dir == "" {
			dir = "."
		}
		return "", errors.GitNotRepo(dir)
	}
	return out, nil
}

// CurrentBranch returns the branch checked out in dir, or "HEAD" when dir is
// in detached-HEAD state.
func (s *Service) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := s.output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", gitErr("CurrentBranch", err, "failed to read current branch in %s", dir)
	}
	return out, nil
}

// GetDefaultBranch returns the repository's main branch: origin's HEAD when
// it is known, otherwise main or master, whichever exists locally.
func (s *Service) GetDefaultBranch(ctx context.Context) (string, error) {
	if ref, err := s.output(ctx, s.dir, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		if branch := strings.TrimPrefix(ref, "refs/remotes/origin/"); branch != "" && branch != ref {
			return branch, nil
		}
	}
	for _, candidate := range []string{"main", "master"} {
		if s.BranchExists(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", errors.E(errors.Op("git.GetDefaultBranch"), errors.KindGit,
		"could not determine the default branch (no origin/HEAD, main or master); set main_branch in .workmux.yaml")
}
