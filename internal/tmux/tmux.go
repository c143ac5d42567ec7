// Package tmux manages the tmux windows paired with worktrees. Windows are
// addressed by name in the current tmux session.
package tmux

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
	pexec "github.com/zhubert/workmux/internal/exec"
	"github.com/zhubert/workmux/internal/logger"
)

// closeDelay is how long a deferred window close waits, so the workmux
// process running inside that window can exit first.
const closeDelay = "1"

// Prefixed returns the window name of a non-main unit.
func Prefixed(prefix, handle string) string {
	return prefix + handle
}

// Service runs tmux commands.
type Service struct {
	executor pexec.CommandExecutor
	log      *slog.Logger
	inTmux   func() bool
}

// NewService returns a Service backed by real tmux processes.
func NewService() *Service {
	return NewServiceWithExecutor(pexec.NewRealExecutor())
}

// NewServiceWithExecutor returns a Service that runs commands through executor.
func NewServiceWithExecutor(executor pexec.CommandExecutor) *Service {
	return &Service{
		executor: executor,
		log:      logger.ComponentLogger("tmux"),
		inTmux:   func() bool { return os.Getenv("TMUX") != "" },
	}
}

func (s *Service) output(ctx context.Context, args ...string) (string, error) {
	s.log.Debug("tmux", "args", args)
	out, err := s.executor.Output(ctx, "", "tmux", args...)
	return strings.TrimSpace(string(out)), err
}

func sessionErr(op string, err error, format string, args ...any) error {
	return errors.E(errors.Op("tmux."+op), errors.KindSession, fmt.Sprintf(format, args...), err)
}

// IsRunning reports whether a tmux server is reachable.
func (s *Service) IsRunning(ctx context.Context) bool {
	_, err := s.output(ctx, "has-session")
	return err == nil
}

// ListWindows returns the window names of the current session.
func (s *Service) ListWindows(ctx context.Context) ([]string, error) {
	out, err := s.output(ctx, "list-windows", "-F", "#{window_name}")
	if err != nil {
		return nil, sessionErr("ListWindows", err, "failed to list tmux windows")
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// WindowExists reports whether a window called name exists.
func (s *Service) WindowExists(ctx context.Context, name string) (bool, error) {
	names, err := s.ListWindows(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// CurrentWindow returns the name of the window this process runs in, or ""
// when it is not running inside tmux.
func (s *Service) CurrentWindow(ctx context.Context) (string, error) {
	if !s.inTmux() {
		return "", nil
	}
	out, err := s.output(ctx, "display-message", "-p", "#{window_name}")
	if err != nil {
		return "", sessionErr("CurrentWindow", err, "failed to read current tmux window")
	}
	return out, nil
}

// NewWindow opens a window called name with its working directory at dir.
// background leaves focus on the current window.
func (s *Service) NewWindow(ctx context.Context, name, dir string, background bool) error {
	args := []string{"new-window"}
	if background {
		args = append(args, "-d")
	}
	args = append(args, "-n", name, "-c", dir)
	if _, err := s.output(ctx, args...); err != nil {
		return sessionErr("NewWindow", err, "failed to create tmux window '%s'", name)
	}
	return nil
}

// SelectWindow focuses the window called name.
func (s *Service) SelectWindow(ctx context.Context, name string) error {
	if _, err := s.output(ctx, "select-window", "-t", windowTarget(name)); err != nil {
		return sessionErr("SelectWindow", err, "failed to switch to tmux window '%s'", name)
	}
	return nil
}

// KillWindow closes the window called name.
func (s *Service) KillWindow(ctx context.Context, name string) error {
	if _, err := s.output(ctx, "kill-window", "-t", windowTarget(name)); err != nil {
		return sessionErr("KillWindow", err, "failed to close tmux window '%s'", name)
	}
	return nil
}

// ScheduleKillWindow asks the tmux server to close the window called name
// shortly after this process exits. Used when the window to close is the one
// workmux is running in.
func (s *Service) ScheduleKillWindow(ctx context.Context, name string) error {
	script := fmt.Sprintf("sleep %s; tmux kill-window -t %s", closeDelay, shellQuote(windowTarget(name)))
	if _, err := s.output(ctx, "run-shell", "-b", script); err != nil {
		return sessionErr("ScheduleKillWindow", err, "failed to schedule close of tmux window '%s'", name)
	}
	return nil
}

// windowTarget matches name exactly in the current session, never as an
// index or prefix.
func windowTarget(name string) string {
	return ":=" + name
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
