package workflow

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/zhubert/workmux/internal/logger"
)

// Deps are the capabilities a Runner drives. Git and Sessions are required.
type Deps struct {
	Git      Git
	Sessions Sessions
	PRs      PullRequests
	Prompt   Prompter
	Hooks    Hooks
	Notify   Notifier
	// Out receives user-facing progress and warnings.
	Out io.Writer
	Log *slog.Logger
}

// Runner executes workflows. Each call is synchronous and independent.
type Runner struct {
	git      Git
	sessions Sessions
	prs      PullRequests
	prompt   Prompter
	hooks    Hooks
	notify   Notifier
	out      io.Writer
	log      *slog.Logger
}

func NewRunner(d Deps) *Runner {
	r := &Runner{
		git:      d.Git,
		sessions: d.Sessions,
		prs:      d.PRs,
		prompt:   d.Prompt,
		hooks:    d.Hooks,
		notify:   d.Notify,
		out:      d.Out,
		log:      d.Log,
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.log == nil {
		r.log = logger.ComponentLogger("workflow")
	}
	if r.notify == nil {
		r.notify = nopNotifier{}
	}
	if r.prompt == nil {
		r.prompt = declinePrompter{}
	}
	return r
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) println(line string) {
	fmt.Fprintln(r.out, line)
}

type nopNotifier struct{}

func (nopNotifier) Merged(string, string) {}
func (nopNotifier) Removed(int, int)      {}

// declinePrompter answers no to everything, for non-interactive callers.
type declinePrompter struct{}

func (declinePrompter) Confirm(string) (bool, error) { return false, nil }
