package workflow

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/zhubert/workmux/internal/config"
	"github.com/zhubert/workmux/internal/git"
	"github.com/zhubert/workmux/internal/github"
)

// fakeGit is an in-memory repository. Branch histories are lists of commit
// ids so fast-forwards and merge commits can be told apart.
type fakeGit struct {
	mainRoot      string
	defaultBranch string
	worktrees     []git.Worktree
	history       map[string][]string
	bases         map[string]string

	unstaged  map[string]bool
	untracked map[string]bool
	staged    map[string]bool
	tracked   map[string]bool

	// tree is the on-disk state of each worktree path.
	tree map[string]string

	unmerged     map[string]bool
	gone         map[string]bool
	badBases     map[string]bool
	remotes      []string
	owner        string
	fail         map[string]error
	mergeCommits int

	calls []string
}

func newFakeGit(mainRoot string) *fakeGit {
	return &fakeGit{
		mainRoot:      mainRoot,
		defaultBranch: "main",
		worktrees:     []git.Worktree{{Path: mainRoot, Branch: "main"}},
		history:       map[string][]string{"main": {"m1"}},
		bases:         map[string]string{},
		unstaged:      map[string]bool{},
		untracked:     map[string]bool{},
		staged:        map[string]bool{},
		tracked:       map[string]bool{},
		tree:          map[string]string{},
		unmerged:      map[string]bool{},
		gone:          map[string]bool{},
		badBases:      map[string]bool{},
		remotes:       []string{"origin"},
		owner:         "acme",
		fail:          map[string]error{},
	}
}

// addUnit registers a worktree on disk for branch with commits on top of
// its base.
func (g *fakeGit) addUnit(t *testing.T, dir, branch, base string, commits ...string) string {
	t.Helper()
	path := filepath.Join(dir, branch)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	g.worktrees = append(g.worktrees, git.Worktree{Path: path, Branch: branch})
	g.history[branch] = append(slices.Clone(g.history[base]), commits...)
	if base != "" {
		g.bases[branch] = base
	}
	return path
}

func (g *fakeGit) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

// mutations returns the recorded calls that change repository state.
func (g *fakeGit) mutations() []string {
	var out []string
	for _, c := range g.calls {
		name, _, _ := strings.Cut(c, " ")
		switch name {
		case "CommitWithEditor", "SwitchBranch", "Merge", "MergeSquash", "Rebase", "AbortMerge", "ResetHard",
			"RemoveWorktree", "PruneWorktrees", "DeleteBranch", "DeleteRemoteBranch", "CreateWorktree",
			"SetBranchBase", "UnsetBranchBase", "Fetch":
			out = append(out, c)
		}
	}
	return out
}

func (g *fakeGit) called(prefix string) bool {
	for _, c := range g.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (g *fakeGit) branchAt(dir string) string {
	for _, wt := range g.worktrees {
		if wt.Path == dir {
			return wt.Branch
		}
	}
	return ""
}

func (g *fakeGit) ListWorktrees(context.Context) ([]git.Worktree, error) {
	if err := g.fail["ListWorktrees"]; err != nil {
		return nil, err
	}
	return slices.Clone(g.worktrees), nil
}

func (g *fakeGit) GetMainWorktreeRoot(context.Context) (string, error) { return g.mainRoot, nil }
func (g *fakeGit) GetDefaultBranch(context.Context) (string, error)    { return g.defaultBranch, nil }

func (g *fakeGit) CurrentBranch(_ context.Context, dir string) (string, error) {
	if dir == "" {
		dir = g.mainRoot
	}
	if b := g.branchAt(dir); b != "" {
		return b, nil
	}
	return "HEAD", nil
}

func (g *fakeGit) BranchExists(_ context.Context, branch string) bool {
	_, ok := g.history[branch]
	return ok
}

func (g *fakeGit) HasUnstagedChanges(_ context.Context, dir string) (bool, error) {
	return g.unstaged[dir], g.fail["status"]
}

func (g *fakeGit) HasUntrackedFiles(_ context.Context, dir string) (bool, error) {
	return g.untracked[dir], g.fail["status"]
}

func (g *fakeGit) HasStagedChanges(_ context.Context, dir string) (bool, error) {
	return g.staged[dir], g.fail["status"]
}

func (g *fakeGit) HasTrackedChanges(_ context.Context, dir string) (bool, error) {
	return g.tracked[dir] || g.staged[dir] || g.unstaged[dir], g.fail["status"]
}

func (g *fakeGit) HasUncommittedChanges(_ context.Context, dir string) (bool, error) {
	return g.tracked[dir] || g.staged[dir] || g.unstaged[dir] || g.untracked[dir], g.fail["status"]
}

func (g *fakeGit) CommitWithEditor(_ context.Context, dir string) error {
	g.record("CommitWithEditor %s", dir)
	if err := g.fail["CommitWithEditor"]; err != nil {
		return err
	}
	b := g.branchAt(dir)
	g.history[b] = append(g.history[b], fmt.Sprintf("commit-%d", len(g.calls)))
	g.staged[dir] = false
	return nil
}

func (g *fakeGit) SwitchBranch(_ context.Context, dir, branch string) error {
	g.record("SwitchBranch %s %s", dir, branch)
	for i := range g.worktrees {
		if g.worktrees[i].Path == dir {
			g.worktrees[i].Branch = branch
		}
	}
	return g.fail["SwitchBranch"]
}

func (g *fakeGit) Merge(_ context.Context, dir, branch string) error {
	g.record("Merge %s %s", dir, branch)
	if err := g.fail["Merge"]; err != nil {
		g.tree[dir] = "<<<<<<< conflict"
		return err
	}
	target := g.branchAt(dir)
	src := g.history[branch]
	if isPrefix(g.history[target], src) {
		g.history[target] = slices.Clone(src)
		return nil
	}
	for _, c := range src {
		if !slices.Contains(g.history[target], c) {
			g.history[target] = append(g.history[target], c)
		}
	}
	g.history[target] = append(g.history[target], "merge-"+branch)
	g.mergeCommits++
	return nil
}

func (g *fakeGit) MergeSquash(_ context.Context, dir, branch string) error {
	g.record("MergeSquash %s %s", dir, branch)
	if err := g.fail["MergeSquash"]; err != nil {
		g.tree[dir] = "<<<<<<< conflict"
		return err
	}
	g.staged[dir] = true
	return nil
}

func (g *fakeGit) Rebase(_ context.Context, dir, base string) error {
	g.record("Rebase %s %s", dir, base)
	if err := g.fail["Rebase"]; err != nil {
		return err
	}
	b := g.branchAt(dir)
	var own []string
	for _, c := range g.history[b] {
		if !slices.Contains(g.history[base], c) {
			own = append(own, c)
		}
	}
	g.history[b] = append(slices.Clone(g.history[base]), own...)
	return nil
}

func (g *fakeGit) AbortMerge(_ context.Context, dir string) error {
	g.record("AbortMerge %s", dir)
	delete(g.tree, dir)
	return nil
}

func (g *fakeGit) ResetHard(_ context.Context, dir string) error {
	g.record("ResetHard %s", dir)
	delete(g.tree, dir)
	g.staged[dir] = false
	return nil
}

func (g *fakeGit) GetBranchBase(_ context.Context, branch string) (string, error) {
	return g.bases[branch], nil
}

func (g *fakeGit) SetBranchBase(_ context.Context, branch, base string) error {
	g.record("SetBranchBase %s %s", branch, base)
	g.bases[branch] = base
	return nil
}

func (g *fakeGit) UnsetBranchBase(_ context.Context, branch string) error {
	g.record("UnsetBranchBase %s", branch)
	delete(g.bases, branch)
	return nil
}

func (g *fakeGit) GetMergeBase(_ context.Context, base string) (string, error) {
	if g.badBases[base] {
		return "", fmt.Errorf("base '%s' does not resolve", base)
	}
	return base, nil
}

func (g *fakeGit) GetUnmergedBranches(_ context.Context, base string) (map[string]bool, error) {
	g.record("GetUnmergedBranches %s", base)
	return g.unmerged, nil
}

func (g *fakeGit) GetGoneBranches(context.Context) (map[string]bool, error) {
	if err := g.fail["GetGoneBranches"]; err != nil {
		return nil, err
	}
	return g.gone, nil
}

func (g *fakeGit) ListRemotes(context.Context) ([]string, error) { return g.remotes, nil }
func (g *fakeGit) GetRepoOwner(context.Context) (string, error)  { return g.owner, nil }

func (g *fakeGit) EnsureForkRemote(_ context.Context, owner string) (string, error) {
	g.record("EnsureForkRemote %s", owner)
	if !slices.Contains(g.remotes, owner) {
		g.remotes = append(g.remotes, owner)
	}
	return owner, nil
}

func (g *fakeGit) FetchPrune(context.Context) error {
	g.record("FetchPrune")
	return g.fail["FetchPrune"]
}

func (g *fakeGit) Fetch(_ context.Context, remote, branch string) error {
	g.record("Fetch %s %s", remote, branch)
	g.history[remote+"/"+branch] = []string{"r1"}
	return g.fail["Fetch"]
}

func (g *fakeGit) CreateWorktree(_ context.Context, path, branch string, opts git.CreateWorktreeOptions) error {
	g.record("CreateWorktree %s %s new=%v start=%s track=%v", path, branch, opts.NewBranch, opts.StartPoint, opts.Track)
	if err := g.fail["CreateWorktree"]; err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	if opts.NewBranch {
		g.history[branch] = slices.Clone(g.history[opts.StartPoint])
	}
	g.worktrees = append(g.worktrees, git.Worktree{Path: path, Branch: branch})
	return nil
}

func (g *fakeGit) RemoveWorktree(_ context.Context, path string, force bool) error {
	g.record("RemoveWorktree %s force=%v", path, force)
	if err := g.fail["RemoveWorktree:"+path]; err != nil {
		return err
	}
	g.worktrees = slices.DeleteFunc(g.worktrees, func(wt git.Worktree) bool { return wt.Path == path })
	return os.RemoveAll(path)
}

func (g *fakeGit) PruneWorktrees(context.Context) error {
	g.record("PruneWorktrees")
	return nil
}

func (g *fakeGit) DeleteBranch(_ context.Context, branch string, force bool) error {
	g.record("DeleteBranch %s force=%v", branch, force)
	if err := g.fail["DeleteBranch"]; err != nil {
		return err
	}
	delete(g.history, branch)
	return nil
}

func (g *fakeGit) DeleteRemoteBranch(_ context.Context, branch string) error {
	g.record("DeleteRemoteBranch %s", branch)
	return g.fail["DeleteRemoteBranch"]
}

func isPrefix(prefix, full []string) bool {
	return len(prefix) <= len(full) && slices.Equal(prefix, full[:len(prefix)])
}

type fakeSessions struct {
	running bool
	windows map[string]bool
	current string
	calls   []string
}

func newFakeSessions(windows ...string) *fakeSessions {
	s := &fakeSessions{running: true, windows: map[string]bool{}}
	for _, w := range windows {
		s.windows[w] = true
	}
	return s
}

func (s *fakeSessions) IsRunning(context.Context) bool { return s.running }

func (s *fakeSessions) ListWindows(context.Context) ([]string, error) {
	var out []string
	for w := range s.windows {
		out = append(out, w)
	}
	slices.Sort(out)
	return out, nil
}

func (s *fakeSessions) WindowExists(_ context.Context, name string) (bool, error) {
	return s.windows[name], nil
}

func (s *fakeSessions) CurrentWindow(context.Context) (string, error) { return s.current, nil }

func (s *fakeSessions) NewWindow(_ context.Context, name, dir string, background bool) error {
	s.calls = append(s.calls, fmt.Sprintf("NewWindow %s %s background=%v", name, dir, background))
	s.windows[name] = true
	return nil
}

func (s *fakeSessions) SelectWindow(_ context.Context, name string) error {
	s.calls = append(s.calls, "SelectWindow "+name)
	return nil
}

func (s *fakeSessions) KillWindow(_ context.Context, name string) error {
	s.calls = append(s.calls, "KillWindow "+name)
	delete(s.windows, name)
	return nil
}

func (s *fakeSessions) ScheduleKillWindow(_ context.Context, name string) error {
	s.calls = append(s.calls, "ScheduleKillWindow "+name)
	return nil
}

type fakePRs struct {
	prs     map[int]*github.PRDetails
	byHead  map[string]*github.PRDetails
	lookups int
}

func (p *fakePRs) GetPRDetails(_ context.Context, number int) (*github.PRDetails, error) {
	pr, ok := p.prs[number]
	if !ok {
		return nil, fmt.Errorf("no PR #%d", number)
	}
	return pr, nil
}

func (p *fakePRs) FindPRByHeadRef(_ context.Context, owner, branch string) (*github.PRDetails, error) {
	p.lookups++
	return p.byHead[owner+":"+branch], nil
}

// scriptedPrompter answers prompts from a fixed script, then no.
type scriptedPrompter struct {
	answers []bool
	prompts []string
}

func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return false, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type recordingHooks struct {
	ran []string
	err error
}

func (h *recordingHooks) Run(_ context.Context, dir, command string) error {
	h.ran = append(h.ran, dir+": "+command)
	return h.err
}

type recordingNotifier struct {
	merged  []string
	removed [][2]int
}

func (n *recordingNotifier) Merged(branch, target string) {
	n.merged = append(n.merged, branch+"->"+target)
}

func (n *recordingNotifier) Removed(removed, failed int) {
	n.removed = append(n.removed, [2]int{removed, failed})
}

type fixture struct {
	dir      string
	git      *fakeGit
	sessions *fakeSessions
	prs      *fakePRs
	prompt   *scriptedPrompter
	hooks    *recordingHooks
	notify   *recordingNotifier
	out      *bytes.Buffer
	wctx     *Context
	runner   *Runner
	chdirs   []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	mainRoot := filepath.Join(dir, "repo")
	if err := os.MkdirAll(mainRoot, 0o755); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		dir:      dir,
		git:      newFakeGit(mainRoot),
		sessions: newFakeSessions("main"),
		prs:      &fakePRs{prs: map[int]*github.PRDetails{}, byHead: map[string]*github.PRDetails{}},
		prompt:   &scriptedPrompter{},
		hooks:    &recordingHooks{},
		notify:   &recordingNotifier{},
		out:      &bytes.Buffer{},
	}

	cfg := config.Defaults()
	cfg.WorktreeDir = filepath.Join(dir, "worktrees")
	f.wctx = &Context{
		MainBranch:       "main",
		MainWorktreeRoot: mainRoot,
		WindowPrefix:     cfg.WindowPrefix,
		Config:           &cfg,
		chdir: func(d string) error {
			f.chdirs = append(f.chdirs, d)
			return nil
		},
	}
	f.runner = NewRunner(Deps{
		Git:      f.git,
		Sessions: f.sessions,
		PRs:      f.prs,
		Prompt:   f.prompt,
		Hooks:    f.hooks,
		Notify:   f.notify,
		Out:      f.out,
		Log:      slog.New(slog.DiscardHandler),
	})
	return f
}

// unit adds a worktree with an open window.
func (f *fixture) unit(t *testing.T, branch, base string, commits ...string) string {
	t.Helper()
	path := f.git.addUnit(t, filepath.Join(f.dir, "worktrees"), branch, base, commits...)
	f.sessions.windows[f.wctx.WindowName(filepath.Base(path))] = true
	return path
}
