package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zhubert/workmux/internal/errors"
	pexec "github.com/zhubert/workmux/internal/exec"
)

// SetupOptions controls environment setup for a new or reopened unit.
type SetupOptions struct {
	RunHooks   bool
	RunFileOps bool
	// Background creates the window without switching to it.
	Background bool
}

// CreateResult describes a unit whose window was just created.
type CreateResult struct {
	BranchName         string
	WorktreePath       string
	Handle             string
	PostCreateHooksRun int
}

// ShellHooks runs hooks with sh -c attached to the terminal.
type ShellHooks struct {
	executor pexec.CommandExecutor
}

func NewShellHooks(executor pexec.CommandExecutor) *ShellHooks {
	return &ShellHooks{executor: executor}
}

func (h *ShellHooks) Run(ctx context.Context, dir, command string) error {
	return h.executor.Interactive(ctx, dir, "sh", "-c", command)
}

func (r *Runner) setupEnvironment(ctx context.Context, wctx *Context, branch, handle, path string, opts SetupOptions) (*CreateResult, error) {
	log := r.log.With("handle", handle, "path", path)
	result := &CreateResult{BranchName: branch, WorktreePath: path, Handle: handle}

	if opts.RunFileOps {
		if err := applyFileOps(wctx.MainWorktreeRoot, path, wctx.Config.Files.Copy, wctx.Config.Files.Symlink); err != nil {
			return nil, err
		}
		log.Debug("setup:files applied")
	}

	if opts.RunHooks && r.hooks != nil {
		for _, hook := range wctx.Config.PostCreate {
			log.Info("setup:running hook", "hook", hook)
			if err := r.hooks.Run(ctx, path, hook); err != nil {
				return nil, errors.E(errors.Op("workflow.Setup"), errors.KindIO,
					fmt.Sprintf("post-create hook '%s' failed in %s", hook, path), err)
			}
			result.PostCreateHooksRun++
		}
	}

	if err := r.sessions.NewWindow(ctx, wctx.WindowName(handle), path, opts.Background); err != nil {
		return nil, err
	}
	log.Info("setup:window created", "window", wctx.WindowName(handle), "hooks", result.PostCreateHooksRun)
	return result, nil
}

// applyFileOps copies and symlinks files matching the configured globs from
// the main worktree into dst. Existing destinations are replaced.
func applyFileOps(srcRoot, dstRoot string, copyGlobs, symlinkGlobs []string) error {
	for _, pattern := range copyGlobs {
		matches, err := filepath.Glob(filepath.Join(srcRoot, pattern))
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("bad copy pattern %q: %v", pattern, err))
		}
		for _, src := range matches {
			rel, _ := filepath.Rel(srcRoot, src)
			if err := copyPath(src, filepath.Join(dstRoot, rel)); err != nil {
				return errors.E(errors.Op("workflow.CopyFiles"), errors.KindIO, fmt.Sprintf("copying %s", rel), err)
			}
		}
	}
	for _, pattern := range symlinkGlobs {
		matches, err := filepath.Glob(filepath.Join(srcRoot, pattern))
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("bad symlink pattern %q: %v", pattern, err))
		}
		for _, src := range matches {
			rel, _ := filepath.Rel(srcRoot, src)
			dst := filepath.Join(dstRoot, rel)
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return errors.E(errors.Op("workflow.SymlinkFiles"), errors.KindIO, fmt.Sprintf("linking %s", rel), err)
			}
			_ = os.RemoveAll(dst)
			if err := os.Symlink(src, dst); err != nil {
				return errors.E(errors.Op("workflow.SymlinkFiles"), errors.KindIO, fmt.Sprintf("linking %s", rel), err)
			}
		}
	}
	return nil
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(src, p)
			target := filepath.Join(dst, rel)
			if d.IsDir() {
				return os.MkdirAll(target, 0o755)
			}
			return copyFile(p, target)
		})
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
