package cmd

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/zhubert/workmux/internal/errors"
)

var (
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// isTerminal reports whether w is a terminal. Styles only apply there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func styled(w io.Writer, s lipgloss.Style, text string) string {
	if !isTerminal(w) {
		return text
	}
	return s.Render(text)
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styled(w, successStyle, "✓ ")+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, styled(w, errorStyle, "Error:")+" "+errors.Message(err))
}
