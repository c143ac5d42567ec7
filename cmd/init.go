package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/git"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .workmux.yaml to the repository root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := git.NewService("").RepoRoot(cmd.Context(), "")
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.ProjectFileName)
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Wrote %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
