package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/workflow"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List worktrees and whether their tmux window is open",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		units, err := a.runner.ListUnits(ctx, a.wctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, formatUnits(out, units))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// formatUnits renders units as an aligned table. Column widths are
// measured in terminal cells.
func formatUnits(w io.Writer, units []workflow.Unit) string {
	header := []string{"HANDLE", "BRANCH", "WINDOW", "PATH"}
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		branch := u.Branch
		if branch == "" {
			branch = "(detached)"
		}
		window := "-"
		if u.WindowOpen {
			window = "✓"
		}
		rows = append(rows, []string{u.Handle, branch, window, u.Path})
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	writeRow := func(row []string, style *lipgloss.Style) {
		for i, cell := range row {
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i]+2)
			}
			if style != nil {
				cell = styled(w, *style, cell)
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}
	writeRow(header, &mutedStyle)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return sb.String()
}
