package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/logger"
)

var (
	debugMode             bool
	quietMode             bool
	version, commit, date string

	// runID tags every log record of this invocation.
	runID = uuid.NewString()
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "workmux",
	Short: "Git worktrees paired with tmux windows",
	Long: `workmux manages units of work: each branch gets its own git worktree and
its own tmux window. Create them with add, come back with open, and finish
with merge or remove.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Log warnings and errors only")
}

func initConfig() {
	switch {
	case quietMode:
		logger.SetLevel(logger.LevelWarn)
	case debugMode:
		logger.SetDebug(true)
	}
	logger.WithRun(runID).Debug("invocation", "args", os.Args[1:], "version", version)
}

// Execute runs the root command and prints any error.
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	defer logger.Close()

	err := rootCmd.Execute()
	if err != nil {
		logger.WithRun(runID).Error("command failed", "error", err)
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("workmux %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("workmux %s\n", version)
}
