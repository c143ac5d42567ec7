package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	wmerrors "github.com/zhubert/workmux/internal/errors"
	"github.com/zhubert/workmux/internal/github"
)

func TestAdd_LocalBranchFromCurrent(t *testing.T) {
	f := newFixture(t)
	f.wctx.Config.PostCreate = []string{"make deps", "echo ready"}

	res, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "feature/login"})
	require.NoError(t, err)

	wantPath := filepath.Join(f.dir, "worktrees", "feature-login")
	require.Equal(t, &CreateResult{
		BranchName:         "feature/login",
		WorktreePath:       wantPath,
		Handle:             "feature-login",
		PostCreateHooksRun: 2,
	}, res)
	require.DirExists(t, wantPath)
	require.True(t, f.git.called("CreateWorktree "+wantPath+" feature/login new=true start=main track=false"))
	require.Equal(t, "main", f.git.bases["feature/login"])
	require.Equal(t, []string{wantPath + ": make deps", wantPath + ": echo ready"}, f.hooks.ran)
	require.Contains(t, f.sessions.calls, "NewWindow wm-feature-login "+wantPath+" background=false")
}

func TestAdd_ExplicitBaseAndName(t *testing.T) {
	f := newFixture(t)
	f.git.history["develop"] = []string{"m1", "d1"}

	res, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "feature/login", Base: "develop", Name: "Login Page", Background: true})
	require.NoError(t, err)
	require.Equal(t, "login-page", res.Handle)
	require.Equal(t, "develop", f.git.bases["feature/login"])
	require.Equal(t, []string{"m1", "d1"}, f.git.history["feature/login"])
	require.Contains(t, f.sessions.calls, "NewWindow wm-login-page "+res.WorktreePath+" background=true")
}

func TestAdd_ExistingBranchIsCheckedOut(t *testing.T) {
	f := newFixture(t)
	f.git.history["hotfix"] = []string{"m1", "h1"}

	_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "hotfix"})
	require.NoError(t, err)
	require.True(t, f.git.called("CreateWorktree "+filepath.Join(f.dir, "worktrees", "hotfix")+" hotfix new=false"))
	require.False(t, f.git.called("SetBranchBase"))
}

func TestAdd_RemoteBranchTracks(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "origin/feature"})
	require.NoError(t, err)
	require.Equal(t, "feature", res.BranchName)
	require.True(t, f.git.called("Fetch origin feature"))
	require.True(t, f.git.called("CreateWorktree "+res.WorktreePath+" feature new=true start=origin/feature track=true"))
	require.Equal(t, "origin/feature", f.git.bases["feature"])
}

func TestAdd_ForkWithBaseRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "alice:fix", Base: "main"})
	require.True(t, wmerrors.Is(err, wmerrors.KindInvalid))
	require.Empty(t, f.git.mutations())
}

func TestAdd_PullRequest(t *testing.T) {
	f := newFixture(t)
	f.prs.prs[5] = &github.PRDetails{
		Number:              5,
		Title:               "Fork fix",
		HeadRefName:         "fix",
		State:               "OPEN",
		HeadRepositoryOwner: github.Login{Login: "dave"},
	}

	res, err := f.runner.Add(ctx, f.wctx, AddOptions{PR: 5})
	require.NoError(t, err)
	require.Equal(t, "fix", res.BranchName)
	require.True(t, f.git.called("EnsureForkRemote dave"))
	require.True(t, f.git.called("Fetch dave fix"))
	require.True(t, f.git.called("CreateWorktree "+res.WorktreePath+" fix new=true start=dave/fix track=true"))
}

func TestAdd_Conflicts(t *testing.T) {
	t.Run("worktree for branch exists", func(t *testing.T) {
		f := newFixture(t)
		f.unit(t, "feature-x", "main")
		_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "feature-x"})
		require.True(t, wmerrors.Is(err, wmerrors.KindConflict))
		require.Contains(t, err.Error(), "workmux open feature-x")
	})

	t.Run("directory exists", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "worktrees", "stale"), 0o755))
		_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "stale"})
		require.True(t, wmerrors.Is(err, wmerrors.KindConflict))
	})

	t.Run("window exists", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.windows["wm-busy"] = true
		_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "busy"})
		require.True(t, wmerrors.Is(err, wmerrors.KindSession))
		require.Empty(t, f.git.mutations())
	})

	t.Run("tmux not running", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.running = false
		_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "x"})
		require.True(t, wmerrors.Is(err, wmerrors.KindSession))
	})

	t.Run("invalid handle override", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "x", Name: "!!!"})
		require.True(t, wmerrors.Is(err, wmerrors.KindInvalid))
	})
}

func TestAdd_HookFailure(t *testing.T) {
	f := newFixture(t)
	f.wctx.Config.PostCreate = []string{"false"}
	f.hooks.err = errors.New("exit status 1")

	_, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "feature-x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "post-create hook 'false' failed")
}

func TestAdd_FileOps(t *testing.T) {
	f := newFixture(t)
	root := f.wctx.MainWorktreeRoot
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("TOKEN=1\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("x"), 0o644))
	f.wctx.Config.Files.Copy = []string{".env"}
	f.wctx.Config.Files.Symlink = []string{"node_modules"}

	res, err := f.runner.Add(ctx, f.wctx, AddOptions{Branch: "feature-x"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(res.WorktreePath, ".env"))
	require.NoError(t, err)
	require.Equal(t, "TOKEN=1\n", string(data))

	link, err := os.Readlink(filepath.Join(res.WorktreePath, "node_modules"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "node_modules"), link)
}

func TestOpen(t *testing.T) {
	f := newFixture(t)
	path := f.unit(t, "feature-x", "main")
	delete(f.sessions.windows, "wm-feature-x")
	f.wctx.Config.PostCreate = []string{"make deps"}

	res, err := f.runner.Open(ctx, f.wctx, "feature-x", SetupOptions{})
	require.NoError(t, err)
	require.Equal(t, path, res.WorktreePath)
	require.Equal(t, "feature-x", res.Handle)
	require.Zero(t, res.PostCreateHooksRun)
	require.Empty(t, f.hooks.ran)
	require.Contains(t, f.sessions.calls, "NewWindow wm-feature-x "+path+" background=false")

	delete(f.sessions.windows, "wm-feature-x")
	res, err = f.runner.Open(ctx, f.wctx, "feature-x", SetupOptions{RunHooks: true})
	require.NoError(t, err)
	require.Equal(t, 1, res.PostCreateHooksRun)
}

func TestOpen_HandleFromDirectory(t *testing.T) {
	f := newFixture(t)
	f.git.addUnit(t, filepath.Join(f.dir, "worktrees"), "old-name", "main")
	f.git.worktrees[1].Branch = "feature/renamed"
	f.wctx.WindowPrefix = "dev-"

	res, err := f.runner.Open(ctx, f.wctx, "feature/renamed", SetupOptions{})
	require.NoError(t, err)
	require.Equal(t, "old-name", res.Handle)
	require.Contains(t, f.sessions.calls, "NewWindow dev-old-name "+res.WorktreePath+" background=false")
}

func TestOpen_Errors(t *testing.T) {
	f := newFixture(t)
	f.unit(t, "feature-x", "main")

	_, err := f.runner.Open(ctx, f.wctx, "feature-x", SetupOptions{})
	require.True(t, wmerrors.Is(err, wmerrors.KindSession))
	require.Contains(t, err.Error(), "wm-feature-x")

	_, err = f.runner.Open(ctx, f.wctx, "nope", SetupOptions{})
	require.True(t, wmerrors.Is(err, wmerrors.KindNotFound))
	require.Contains(t, err.Error(), "workmux add nope")
}
