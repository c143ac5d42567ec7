// Package exec abstracts running external commands (git, tmux, gh, hooks)
// so that services can be exercised against a scripted executor in tests.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
)

// CommandExecutor runs external commands in a working directory.
type CommandExecutor interface {
	// Run executes the command and returns stdout and stderr separately.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
	// Output executes the command and returns stdout.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// CombinedOutput executes the command and returns stdout and stderr interleaved.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// Interactive executes the command attached to the process's terminal.
	// Used for commands that open the user's editor.
	Interactive(ctx context.Context, dir, name string, args ...string) error
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

// NewRealExecutor returns an executor that runs real processes.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

func (e *RealExecutor) command(ctx context.Context, dir, name string, args ...string) *osexec.Cmd {
	cmd := osexec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd
}

// Run implements CommandExecutor.
func (e *RealExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := e.command(ctx, dir, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		err = &ExitError{Name: name, Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// Output implements CommandExecutor.
func (e *RealExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, _, err := e.Run(ctx, dir, name, args...)
	return stdout, err
}

// CombinedOutput implements CommandExecutor.
func (e *RealExecutor) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := e.command(ctx, dir, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		err = &ExitError{Name: name, Args: args, Stderr: strings.TrimSpace(string(out)), Err: err}
	}
	return out, err
}

// Interactive implements CommandExecutor.
func (e *RealExecutor) Interactive(ctx context.Context, dir, name string, args ...string) error {
	cmd := e.command(ctx, dir, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return &ExitError{Name: name, Args: args, Err: err}
	}
	return nil
}

// ExitError describes a command that failed, keeping its stderr so callers
// can surface git's own explanation.
type ExitError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", cmdline, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
