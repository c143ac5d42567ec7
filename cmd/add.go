package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/workflow"
)

var (
	addBase       string
	addPR         int
	addName       string
	addBackground bool
)

var addCmd = &cobra.Command{
	Use:   "add [branch]",
	Short: "Create a worktree and tmux window for a branch",
	Long: `Create a new worktree for a branch and open it in its own tmux window.

The branch may be a local name, a remote reference such as origin/feature,
or a fork reference such as owner:feature. New local branches start from
--base, or from the current branch when --base is not given.

With --pr, the pull request's head branch is checked out instead and the
positional argument, if any, names the local branch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addBase, "base", "b", "", "Branch to start the new branch from")
	addCmd.Flags().IntVar(&addPR, "pr", 0, "Check out a pull request by number")
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Override the worktree directory and window name")
	addCmd.Flags().BoolVarP(&addBackground, "background", "d", false, "Create the window without switching to it")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	opts := workflow.AddOptions{
		Base:       addBase,
		Name:       addName,
		PR:         addPR,
		Background: addBackground,
	}
	if len(args) == 1 {
		opts.Branch = args[0]
	}
	if cmd.Flags().Changed("name") && strings.TrimSpace(addName) == "" {
		return errors.InvalidHandle(addName, "--name cannot be empty")
	}
	if opts.Branch == "" && opts.PR == 0 {
		return errors.E(errors.Op("cmd.add"), errors.KindInvalid, "a branch name or --pr is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	res, err := a.runner.Add(ctx, a.wctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Successfully created worktree and tmux window for '%s'", res.BranchName)
	if res.PostCreateHooksRun > 0 {
		fmt.Fprintf(out, "  Ran %d post-create hook(s)\n", res.PostCreateHooksRun)
	}
	fmt.Fprintf(out, "  Worktree: %s\n", res.WorktreePath)
	return nil
}
