package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/workmux/internal/errors"
)

// isolate points the global config at an empty temp dir so a developer's
// real config never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WindowPrefix != "wm-" {
		t.Errorf("WindowPrefix = %q, want wm-", cfg.WindowPrefix)
	}
	if cfg.MergeStrategy != StrategyMerge {
		t.Errorf("MergeStrategy = %q, want merge", cfg.MergeStrategy)
	}
	if cfg.MainBranch != "" || cfg.WorktreeDir != "" || cfg.Notifications {
		t.Errorf("unexpected non-default values: %+v", cfg)
	}
	if len(cfg.Sources()) != 0 {
		t.Errorf("Sources() = %v, want none", cfg.Sources())
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "workmux", "config.yaml"), `
window_prefix: g-
merge_strategy: rebase
notifications: true
`)
	project := t.TempDir()
	writeFile(t, filepath.Join(project, ProjectFileName), `
window_prefix: p-
post_create:
  - npm install
files:
  copy:
    - .env
  symlink:
    - node_modules
`)

	cfg, err := Load(project)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WindowPrefix != "p-" {
		t.Errorf("WindowPrefix = %q, want project value p-", cfg.WindowPrefix)
	}
	if cfg.MergeStrategy != StrategyRebase {
		t.Errorf("MergeStrategy = %q, want global value rebase", cfg.MergeStrategy)
	}
	if !cfg.Notifications {
		t.Error("Notifications should come from the global file")
	}
	if len(cfg.PostCreate) != 1 || cfg.PostCreate[0] != "npm install" {
		t.Errorf("PostCreate = %v", cfg.PostCreate)
	}
	if len(cfg.Files.Copy) != 1 || cfg.Files.Copy[0] != ".env" {
		t.Errorf("Files.Copy = %v", cfg.Files.Copy)
	}
	if len(cfg.Files.Symlink) != 1 || cfg.Files.Symlink[0] != "node_modules" {
		t.Errorf("Files.Symlink = %v", cfg.Files.Symlink)
	}
	if len(cfg.Sources()) != 2 {
		t.Errorf("Sources() = %v, want global and project", cfg.Sources())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("WORKMUX_MERGE_STRATEGY", "squash")
	t.Setenv("WORKMUX_MAIN_BRANCH", "trunk")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MergeStrategy != StrategySquash {
		t.Errorf("MergeStrategy = %q, want squash", cfg.MergeStrategy)
	}
	if cfg.MainBranch != "trunk" {
		t.Errorf("MainBranch = %q, want trunk", cfg.MainBranch)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad strategy", "merge_strategy: octopus\n"},
		{"prefix with space", "window_prefix: \"wm \"\n"},
		{"prefix with colon", "window_prefix: \"wm:\"\n"},
		{"absolute copy glob", "files:\n  copy:\n    - /etc/passwd\n"},
		{"traversal symlink glob", "files:\n  symlink:\n    - ../outside\n"},
		{"malformed yaml", "window_prefix: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			project := t.TempDir()
			writeFile(t, filepath.Join(project, ProjectFileName), tt.content)

			_, err := Load(project)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.KindConfig) {
				t.Errorf("kind = %v, want KindConfig", errors.GetKind(err))
			}
		})
	}
}

func TestMergeStrategy_Valid(t *testing.T) {
	for _, s := range []MergeStrategy{StrategyMerge, StrategyRebase, StrategySquash} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if MergeStrategy("fast-forward").Valid() {
		t.Error("unknown strategy should be invalid")
	}
}

func TestWorktreeBase(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"default sibling", "", "/src/myrepo__worktrees"},
		{"absolute", "/var/worktrees", "/var/worktrees"},
		{"relative to repo", ".worktrees", "/src/myrepo/.worktrees"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.WorktreeDir = tt.dir
			if got := cfg.WorktreeBase("/src/myrepo"); got != tt.want {
				t.Errorf("WorktreeBase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultConfigTemplate_RoundTrips(t *testing.T) {
	tmpl, err := DefaultConfigTemplate()
	if err != nil {
		t.Fatalf("DefaultConfigTemplate() error = %v", err)
	}
	if !strings.HasPrefix(tmpl, "# workmux project configuration") {
		t.Error("template should start with the comment header")
	}

	var parsed Config
	if err := yaml.Unmarshal([]byte(tmpl), &parsed); err != nil {
		t.Fatalf("template is not valid YAML: %v", err)
	}
	if parsed.WindowPrefix != "wm-" || parsed.MergeStrategy != StrategyMerge {
		t.Errorf("parsed template = %+v", parsed)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectFileName)

	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("written config should load: %v", err)
	}
	if cfg.WindowPrefix != "wm-" {
		t.Errorf("WindowPrefix = %q", cfg.WindowPrefix)
	}

	err = WriteDefaultConfig(path)
	if err == nil {
		t.Fatal("second write should refuse to overwrite")
	}
	if !errors.Is(err, errors.KindConfig) {
		t.Errorf("kind = %v, want KindConfig", errors.GetKind(err))
	}
}
