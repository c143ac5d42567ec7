package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/errors"
	pexec "github.com/zhubert/workmux/internal/exec"
	"github.com/zhubert/workmux/internal/git"
	"github.com/zhubert/workmux/internal/github"
	"github.com/zhubert/workmux/internal/logger"
	"github.com/zhubert/workmux/internal/notification"
	"github.com/zhubert/workmux/internal/tmux"
	"github.com/zhubert/workmux/internal/workflow"
)

// app is what every subcommand needs: the resolved workflow context and a
// runner wired to the real git, tmux and gh.
type app struct {
	cfg    *config.Config
	wctx   *workflow.Context
	runner *workflow.Runner
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	gitSvc := git.NewService("")
	mainRoot, err := gitSvc.GetMainWorktreeRoot(ctx)
	if err != nil {
		cwd, _ := os.Getwd()
		return nil, errors.GitNotRepo(cwd)
	}

	cfg, err := config.Load(mainRoot)
	if err != nil {
		return nil, err
	}
	log := logger.WithRun(runID)
	log.Debug("config loaded", "sources", cfg.Sources())

	wctx, err := workflow.NewContext(ctx, gitSvc, cfg)
	if err != nil {
		return nil, err
	}

	runner := workflow.NewRunner(workflow.Deps{
		Git:      gitSvc,
		Sessions: tmux.NewService(),
		PRs:      github.NewService(),
		Prompt:   newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		Hooks:    workflow.NewShellHooks(pexec.NewRealExecutor()),
		Notify:   notification.New(cfg.Notifications),
		Out:      cmd.OutOrStdout(),
		Log:      log.With("component", "workflow"),
	})
	return &app{cfg: cfg, wctx: wctx, runner: runner}, nil
}

// resolveName returns name, or the unit containing the working directory
// when name is empty.
func (a *app) resolveName(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.E(errors.Op("cmd.resolveName"), errors.KindIO, "reading working directory", err)
	}
	return a.runner.NameFromDir(ctx, a.wctx, cwd)
}
