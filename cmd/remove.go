package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/workflow"
)

var removeOpts workflow.RemoveOptions

var removeCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm"},
	Short:   "Remove a worktree, its tmux window and its branch",
	Long: `Remove a worktree together with its tmux window and local branch.

Without a name, the worktree containing the current directory is removed.
Uncommitted changes block removal unless --force is given, and a branch
that is not merged into its base asks for confirmation first.

With --gone, every worktree whose upstream branch was deleted on the remote
is removed after a single confirmation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	f := removeCmd.Flags()
	f.BoolVarP(&removeOpts.Gone, "gone", "g", false, "Remove every worktree whose upstream branch is gone")
	f.BoolVarP(&removeOpts.Force, "force", "f", false, "Skip safety checks and confirmation")
	f.BoolVarP(&removeOpts.KeepBranch, "keep-branch", "k", false, "Keep the local branch")
	f.BoolVarP(&removeOpts.DeleteRemote, "delete-remote", "r", false, "Also delete the remote branch")
	removeCmd.MarkFlagsMutuallyExclusive("keep-branch", "delete-remote")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	opts := removeOpts
	if opts.Gone && len(args) > 0 {
		return errors.E(errors.Op("cmd.remove"), errors.KindInvalid, "--gone cannot be combined with a worktree name")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	if !opts.Gone {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		if opts.Name, err = a.resolveName(ctx, name); err != nil {
			return err
		}
	}

	res, err := a.runner.Remove(ctx, a.wctx, opts)
	if err != nil {
		return err
	}
	if res.Aborted || opts.Gone {
		return removeOutcome(res)
	}

	what := "worktree, window and branch"
	if res.Cleanup != nil && !res.Cleanup.BranchDeleted {
		what = "worktree and window"
	}
	printSuccess(cmd.OutOrStdout(), "Removed %s for '%s'", what, opts.Name)
	return nil
}

// removeOutcome turns batch failures into a non-zero exit.
func removeOutcome(res *workflow.RemoveResult) error {
	if len(res.Failed) == 0 {
		return nil
	}
	return errors.E(errors.Op("cmd.remove"), errors.KindGit,
		fmt.Sprintf("%d worktree(s) could not be removed", len(res.Failed)))
}
