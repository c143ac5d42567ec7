package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/workflow"
)

var mergeOpts workflow.MergeOptions

var mergeCmd = &cobra.Command{
	Use:   "merge [name]",
	Short: "Merge a worktree's branch and clean it up",
	Long: `Merge a worktree's branch into its base branch (or --into), then remove
the worktree, its tmux window and the local branch.

Without a name, the worktree containing the current directory is merged.
The strategy is a merge commit unless --rebase, --squash or the
merge_strategy setting says otherwise. Conflicts leave the target clean.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.StringVar(&mergeOpts.Into, "into", "", "Target branch (default: the branch's recorded base)")
	f.BoolVarP(&mergeOpts.IgnoreUncommitted, "ignore-uncommitted", "u", false, "Skip the uncommitted changes check")
	f.BoolVar(&mergeOpts.Rebase, "rebase", false, "Rebase onto the target, then fast-forward")
	f.BoolVar(&mergeOpts.Squash, "squash", false, "Squash all commits into one")
	f.BoolVarP(&mergeOpts.Keep, "keep", "k", false, "Keep the worktree, window and branch after merging")
	f.BoolVarP(&mergeOpts.DeleteRemote, "delete-remote", "r", false, "Also delete the remote branch")
	mergeCmd.MarkFlagsMutuallyExclusive("rebase", "squash")
	mergeCmd.MarkFlagsMutuallyExclusive("keep", "delete-remote")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}

	opts := mergeOpts
	if len(args) == 1 {
		opts.Name = args[0]
	} else if opts.Name, err = a.resolveName(ctx, ""); err != nil {
		return err
	}

	res, err := a.runner.Merge(ctx, a.wctx, opts)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Merged '%s' into '%s'", res.BranchMerged, res.TargetBranch)
	return nil
}
