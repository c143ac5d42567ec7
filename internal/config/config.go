// Package config loads workmux settings. A global file under the user's
// config directory is read first and the project's .workmux.yaml is merged
// over it; WORKMUX_* environment variables override both.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zhubert/workmux/internal/errors"
)

// ProjectFileName is the per-repository config file, looked up in the main
// worktree root.
const ProjectFileName = ".workmux.yaml"

// EnvPrefix prefixes environment overrides, e.g. WORKMUX_WINDOW_PREFIX.
const EnvPrefix = "WORKMUX"

// MergeStrategy selects how merge integrates a branch.
type MergeStrategy string

const (
	StrategyMerge  MergeStrategy = "merge"
	StrategyRebase MergeStrategy = "rebase"
	StrategySquash MergeStrategy = "squash"
)

// Valid reports whether s is a known strategy.
func (s MergeStrategy) Valid() bool {
	switch s {
	case StrategyMerge, StrategyRebase, StrategySquash:
		return true
	}
	return false
}

// FilesConfig lists globs, relative to the main worktree, that are brought
// into every new worktree.
type FilesConfig struct {
	Copy    []string `mapstructure:"copy" yaml:"copy"`
	Symlink []string `mapstructure:"symlink" yaml:"symlink"`
}

// Config holds all configuration options for workmux.
type Config struct {
	// MainBranch overrides default-branch detection when set.
	MainBranch string `mapstructure:"main_branch" yaml:"main_branch"`
	// WindowPrefix is prepended to every non-main tmux window name.
	WindowPrefix string `mapstructure:"window_prefix" yaml:"window_prefix"`
	// WorktreeDir is where worktrees are created. Relative paths are
	// resolved against the main worktree root. Empty means a sibling
	// directory named <repo>__worktrees.
	WorktreeDir   string        `mapstructure:"worktree_dir" yaml:"worktree_dir"`
	MergeStrategy MergeStrategy `mapstructure:"merge_strategy" yaml:"merge_strategy"`
	// PostCreate commands run through sh -c inside each new worktree.
	PostCreate    []string    `mapstructure:"post_create" yaml:"post_create"`
	Files         FilesConfig `mapstructure:"files" yaml:"files"`
	Notifications bool        `mapstructure:"notifications" yaml:"notifications"`

	sources []string
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		WindowPrefix:  "wm-",
		MergeStrategy: StrategyMerge,
		PostCreate:    []string{},
		Files:         FilesConfig{Copy: []string{}, Symlink: []string{}},
	}
}

// GlobalPath returns the location of the user-wide config file.
func GlobalPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "workmux", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "workmux", "config.yaml"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("main_branch", d.MainBranch)
	v.SetDefault("window_prefix", d.WindowPrefix)
	v.SetDefault("worktree_dir", d.WorktreeDir)
	v.SetDefault("merge_strategy", string(d.MergeStrategy))
	v.SetDefault("post_create", d.PostCreate)
	v.SetDefault("files.copy", d.Files.Copy)
	v.SetDefault("files.symlink", d.Files.Symlink)
	v.SetDefault("notifications", d.Notifications)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the global config and then merges projectDir/.workmux.yaml over
// it. Missing files are not an error. An empty projectDir skips the project
// file.
func Load(projectDir string) (*Config, error) {
	v := newViper()
	var sources []string

	global, err := GlobalPath()
	if err == nil {
		if ok, err := mergeFile(v, global); err != nil {
			return nil, err
		} else if ok {
			sources = append(sources, global)
		}
	}

	if projectDir != "" {
		project := filepath.Join(projectDir, ProjectFileName)
		if ok, err := mergeFile(v, project); err != nil {
			return nil, err
		} else if ok {
			sources = append(sources, project)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigLoadFailed(strings.Join(sources, ", "), err)
	}
	cfg.sources = sources
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.ConfigLoadFailed(path, err)
	}
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, errors.ConfigLoadFailed(path, err)
	}
	return true, nil
}

// Sources lists the files that contributed to this config, in merge order.
func (c *Config) Sources() []string {
	return slices.Clone(c.sources)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.MergeStrategy == "" {
		c.MergeStrategy = StrategyMerge
	}
	if !c.MergeStrategy.Valid() {
		return errors.ConfigInvalid(fmt.Sprintf("invalid merge_strategy %q (expected merge, rebase or squash)", c.MergeStrategy))
	}
	if strings.ContainsFunc(c.WindowPrefix, unicode.IsSpace) || strings.Contains(c.WindowPrefix, ":") {
		return errors.ConfigInvalid(fmt.Sprintf("invalid window_prefix %q: must not contain whitespace or ':'", c.WindowPrefix))
	}
	for _, pattern := range slices.Concat(c.Files.Copy, c.Files.Symlink) {
		if filepath.IsAbs(pattern) || strings.Contains(pattern, "..") {
			return errors.ConfigInvalid(fmt.Sprintf("file pattern %q must be relative to the repository", pattern))
		}
	}
	return nil
}

// WorktreeBase returns the directory new worktrees are created in for a
// repository whose main worktree is mainRoot.
func (c *Config) WorktreeBase(mainRoot string) string {
	switch {
	case c.WorktreeDir == "":
		return filepath.Join(filepath.Dir(mainRoot), filepath.Base(mainRoot)+"__worktrees")
	case filepath.IsAbs(c.WorktreeDir):
		return c.WorktreeDir
	default:
		return filepath.Join(mainRoot, c.WorktreeDir)
	}
}

// DefaultConfigTemplate returns the default project config as YAML with a
// comment header.
func DefaultConfigTemplate() (string, error) {
	body, err := yaml.Marshal(Defaults())
	if err != nil {
		return "", err
	}
	header := `# workmux project configuration
#
# main_branch:    branch merges target by default (empty = detect from origin)
# window_prefix:  prefix for tmux window names of worktrees
# worktree_dir:   where worktrees live (empty = <repo>__worktrees next to the repo)
# merge_strategy: merge, rebase or squash
# post_create:    shell commands run in each new worktree
# files.copy / files.symlink: globs brought over from the main worktree
# notifications:  desktop notification after merge and batch removal

`
	return header + string(body), nil
}

// WriteDefaultConfig creates path with the default template. It refuses to
// overwrite an existing file.
func WriteDefaultConfig(path string) error {
	tmpl, err := DefaultConfigTemplate()
	if err != nil {
		return errors.E(errors.Op("config.WriteDefault"), errors.KindConfig, "rendering template", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		return errors.E(errors.Op("config.WriteDefault"), errors.KindConfig, fmt.Sprintf("%s already exists", path))
	}
	if err != nil {
		return errors.E(errors.Op("config.WriteDefault"), errors.KindIO, fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()
	if _, err := f.WriteString(tmpl); err != nil {
		return errors.E(errors.Op("config.WriteDefault"), errors.KindIO, fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
