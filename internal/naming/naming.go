// Package naming derives handles: the slug that names both a worktree
// directory and its tmux window.
package naming

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"

	"github.com/zhubert/workmux/internal/errors"
)

// DeriveHandle returns the handle for branch. A non-empty override takes
// priority and is slugified on its own, so the branch name never leaks into
// an explicitly named handle.
func DeriveHandle(branch, override string) (string, error) {
	source := branch
	if override != "" {
		source = override
	}
	handle := slug.Make(source)
	if err := ValidateHandle(handle); err != nil {
		return "", err
	}
	return handle, nil
}

// ValidateHandle checks that handle is safe as a directory and window name.
func ValidateHandle(handle string) error {
	if handle == "" {
		return errors.InvalidHandle(handle, "handle cannot be empty")
	}
	// slug output should never trip these; checked anyway because the
	// value becomes a path.
	if strings.Contains(handle, "..") || strings.HasPrefix(handle, "/") || strings.ContainsRune(handle, '/') {
		return errors.InvalidHandle(handle, "handle cannot contain path traversal")
	}
	if strings.IndexFunc(handle, unicode.IsSpace) >= 0 {
		return errors.InvalidHandle(handle, "handle cannot contain whitespace")
	}
	return nil
}
