// Package github reads pull request metadata through the gh CLI.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zhubert/workmux/internal/errors"
	pexec "github.com/zhubert/workmux/internal/exec"
	"github.com/zhubert/workmux/internal/logger"
)

// Login is a GitHub account reference as gh renders it.
type Login struct {
	Login string `json:"login"`
}

// PRDetails holds the fields of a pull request needed to check it out.
type PRDetails struct {
	Number              int    `json:"number"`
	Title               string `json:"title"`
	Author              Login  `json:"author"`
	HeadRefName         string `json:"headRefName"`
	State               string `json:"state"` // "OPEN", "MERGED", "CLOSED"
	IsDraft             bool   `json:"isDraft"`
	HeadRepositoryOwner Login  `json:"headRepositoryOwner"`
}

// IsFork reports whether the PR's head lives in a repository not owned by
// repoOwner.
func (p *PRDetails) IsFork(repoOwner string) bool {
	return p.HeadRepositoryOwner.Login != "" && !strings.EqualFold(p.HeadRepositoryOwner.Login, repoOwner)
}

// StateSuffix renders the state for display after a PR title.
func (p *PRDetails) StateSuffix() string {
	switch p.State {
	case "OPEN":
		if p.IsDraft {
			return " (draft)"
		}
		return ""
	case "MERGED":
		return " (merged)"
	case "CLOSED":
		return " (closed)"
	default:
		return ""
	}
}

const prFields = "number,title,author,headRefName,state,isDraft,headRepositoryOwner"

// Service queries GitHub via gh.
type Service struct {
	executor pexec.CommandExecutor
	log      *slog.Logger
}

// NewService returns a Service backed by the real gh CLI.
func NewService() *Service {
	return NewServiceWithExecutor(pexec.NewRealExecutor())
}

// NewServiceWithExecutor returns a Service that runs commands through executor.
func NewServiceWithExecutor(executor pexec.CommandExecutor) *Service {
	return &Service{executor: executor, log: logger.ComponentLogger("github")}
}

// GetPRDetails fetches pull request number for the repository in the
// current directory.
func (s *Service) GetPRDetails(ctx context.Context, number int) (*PRDetails, error) {
	s.log.Debug("fetching PR", "number", number)
	out, err := s.executor.Output(ctx, "", "gh", "pr", "view", strconv.Itoa(number), "--json", prFields)
	if err != nil {
		return nil, errors.E(errors.Op("github.GetPRDetails"), errors.KindNetwork,
			fmt.Sprintf("Failed to fetch details for PR #%d", number), err)
	}
	var pr PRDetails
	if err := json.Unmarshal(out, &pr); err != nil {
		return nil, errors.E(errors.Op("github.GetPRDetails"), errors.KindInvalid,
			fmt.Sprintf("unexpected gh output for PR #%d", number), err)
	}
	if pr.Number == 0 {
		pr.Number = number
	}
	return &pr, nil
}

// FindPRByHeadRef returns the PR whose head is owner:branch, preferring an
// open one. It returns nil when there is none.
func (s *Service) FindPRByHeadRef(ctx context.Context, owner, branch string) (*PRDetails, error) {
	out, err := s.executor.Output(ctx, "", "gh", "pr", "list",
		"--head", branch,
		"--state", "all",
		"--json", prFields,
	)
	if err != nil {
		return nil, errors.E(errors.Op("github.FindPRByHeadRef"), errors.KindNetwork,
			fmt.Sprintf("failed to list PRs for %s:%s", owner, branch), err)
	}
	var prs []PRDetails
	if err := json.Unmarshal(out, &prs); err != nil {
		return nil, errors.E(errors.Op("github.FindPRByHeadRef"), errors.KindInvalid, "unexpected gh output", err)
	}

	var found *PRDetails
	for i := range prs {
		if !strings.EqualFold(prs[i].HeadRepositoryOwner.Login, owner) {
			continue
		}
		if prs[i].State == "OPEN" {
			return &prs[i], nil
		}
		if found == nil {
			found = &prs[i]
		}
	}
	return found, nil
}
