// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/zhubert/workmux/internal/logger"
)

// notify is swapped out in tests.
var notify = beeep.Notify

const appName = "workmux"

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	logger.Debug("notification: title=%q message=%q", title, message)
	err := notify(title, message, "")
	if err != nil {
		logger.Warn("notification: failed to send: %v", err)
	}
	return err
}

// Notifier sends workflow notifications when enabled. A disabled Notifier
// does nothing, so callers never need to check configuration.
type Notifier struct {
	enabled bool
}

// New returns a Notifier. enabled comes from the notifications config key.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// Merged reports a completed merge of branch into target.
func (n *Notifier) Merged(branch, target string) {
	if n == nil || !n.enabled {
		return
	}
	_ = Send(appName, fmt.Sprintf("Merged %s into %s", branch, target))
}

// Removed reports the outcome of a batch removal.
func (n *Notifier) Removed(removed, failed int) {
	if n == nil || !n.enabled {
		return
	}
	msg := fmt.Sprintf("Removed %d worktree(s)", removed)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	_ = Send(appName, msg)
}
