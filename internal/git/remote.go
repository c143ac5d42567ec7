package git

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
)

// ForkBranchSpec is a GitHub-style "owner:branch" reference.
type ForkBranchSpec struct {
	Owner  string
	Branch string
}

// RemoteBranchSpec is a "remote/branch" reference.
type RemoteBranchSpec struct {
	Remote string
	Branch string
}

var githubOwner = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`)

// ParseForkBranchSpec parses "owner:branch". URLs, refspecs and values with
// whitespace are rejected so ordinary branch names never parse as forks.
func ParseForkBranchSpec(s string) (ForkBranchSpec, bool) {
	if strings.Contains(s, "://") || strings.ContainsAny(s, " \t\n") {
		return ForkBranchSpec{}, false
	}
	owner, branch, ok := strings.Cut(s, ":")
	if !ok || branch == "" || strings.Contains(branch, ":") || !githubOwner.MatchString(owner) {
		return ForkBranchSpec{}, false
	}
	return ForkBranchSpec{Owner: owner, Branch: branch}, true
}

// ParseRemoteBranchSpec splits "remote/branch" at the first slash.
func ParseRemoteBranchSpec(s string) (RemoteBranchSpec, bool) {
	remote, branch, ok := strings.Cut(s, "/")
	if !ok || remote == "" || branch == "" {
		return RemoteBranchSpec{}, false
	}
	return RemoteBranchSpec{Remote: remote, Branch: branch}, true
}

// ListRemotes returns the configured remote names.
func (s *Service) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := s.output(ctx, s.dir, "remote")
	if err != nil {
		return nil, gitErr("ListRemotes", err, "failed to list remotes")
	}
	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		if r := strings.TrimSpace(line); r != "" {
			remotes = append(remotes, r)
		}
	}
	return remotes, nil
}

// RemoteURL returns the fetch URL of remote.
func (s *Service) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := s.output(ctx, s.dir, "remote", "get-url", remote)
	if err != nil {
		return "", errors.E(errors.Op("git.RemoteURL"), errors.KindNotFound,
			fmt.Sprintf("remote '%s' is not configured", remote), err)
	}
	return strings.TrimSpace(out), nil
}

// FetchPrune fetches all remotes and drops remote-tracking refs whose
// branches were deleted upstream.
func (s *Service) FetchPrune(ctx context.Context) error {
	if err := s.run(ctx, s.dir, "fetch", "--all", "--prune"); err != nil {
		return errors.E(errors.Op("git.FetchPrune"), errors.KindNetwork, "failed to fetch from remotes", err)
	}
	return nil
}

// Fetch fetches one branch from remote.
func (s *Service) Fetch(ctx context.Context, remote, branch string) error {
	if err := s.run(ctx, s.dir, "fetch", remote, branch); err != nil {
		return errors.E(errors.Op("git.Fetch"), errors.KindNetwork,
			fmt.Sprintf("failed to fetch '%s' from '%s'", branch, remote), err)
	}
	return nil
}

// remoteURL is a parsed GitHub-style remote URL.
type remoteURL struct {
	prefix string // everything before the owner, e.g. "git@github.com:"
	owner  string
	repo   string // repository name including any ".git" suffix
}

func (u remoteURL) withOwner(owner string) string {
	return u.prefix + owner + "/" + u.repo
}

// parseRemoteURL understands scp-style (git@host:owner/repo.git) and
// URL-style (https://host/owner/repo, ssh://git@host/owner/repo.git) remotes.
func parseRemoteURL(raw string) (remoteURL, bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")
	var prefix, path string
	if i := strings.Index(raw, "://"); i >= 0 {
		rest := raw[i+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return remoteURL{}, false
		}
		prefix = raw[:i+3] + rest[:slash+1]
		path = rest[slash+1:]
	} else {
		colon := strings.Index(raw, ":")
		if colon < 0 {
			return remoteURL{}, false
		}
		prefix = raw[:colon+1]
		path = raw[colon+1:]
	}
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return remoteURL{}, false
	}
	return remoteURL{prefix: prefix, owner: owner, repo: repo}, true
}

// GetRepoOwner returns the owner segment of origin's URL.
func (s *Service) GetRepoOwner(ctx context.Context) (string, error) {
	raw, err := s.RemoteURL(ctx, "origin")
	if err != nil {
		return "", err
	}
	u, ok := parseRemoteURL(raw)
	if !ok {
		return "", errors.E(errors.Op("git.GetRepoOwner"), errors.KindGit,
			fmt.Sprintf("cannot determine repository owner from origin URL '%s'", raw))
	}
	return u.owner, nil
}

// EnsureForkRemote makes sure a remote named after owner exists, adding one
// that points at owner's fork of origin's repository if needed. It returns
// the remote name.
func (s *Service) EnsureForkRemote(ctx context.Context, owner string) (string, error) {
	remotes, err := s.ListRemotes(ctx)
	if err != nil {
		return "", err
	}
	if slices.Contains(remotes, owner) {
		return owner, nil
	}

	raw, err := s.RemoteURL(ctx, "origin")
	if err != nil {
		return "", err
	}
	u, ok := parseRemoteURL(raw)
	if !ok {
		return "", errors.E(errors.Op("git.EnsureForkRemote"), errors.KindGit,
			fmt.Sprintf("cannot derive fork URL from origin URL '%s'", raw))
	}
	forkURL := u.withOwner(owner)
	if err := s.run(ctx, s.dir, "remote", "add", owner, forkURL); err != nil {
		return "", gitErr("EnsureForkRemote", err, "failed to add remote '%s' (%s)", owner, forkURL)
	}
	s.log.Info("added fork remote", "remote", owner, "url", forkURL)
	return owner, nil
}
