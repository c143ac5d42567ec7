package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/workflow"
)

var (
	openRunHooks   bool
	openForceFiles bool
)

var openCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open a tmux window for an existing worktree",
	Long: `Open a tmux window for a worktree that already exists, looked up by
directory name or branch. Post-create hooks and file operations are skipped
unless requested.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openRunHooks, "run-hooks", false, "Run post-create hooks again")
	openCmd.Flags().BoolVar(&openForceFiles, "force-files", false, "Re-apply file copy and symlink operations")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	res, err := a.runner.Open(ctx, a.wctx, args[0], workflow.SetupOptions{
		RunHooks:   openRunHooks,
		RunFileOps: openForceFiles,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "Successfully opened tmux window for '%s'", res.BranchName)
	fmt.Fprintf(out, "  Worktree: %s\n", res.WorktreePath)
	return nil
}
