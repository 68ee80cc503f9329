// Package ghdiscovery lists the repositories a survey should pull in,
// grounded on the teacher's github.Client rate-limited-pagination pattern
// but trimmed to repository listing only: forge reads tree structure from
// local clones (internal/repocache, internal/extract/*), never from the
// GitHub API, so the commit/PR/issue/file-tree fetchers the teacher client
// also carries have no role here.
package ghdiscovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/config"
)

// Repository is one discoverable repository, trimmed to the fields a
// clone-and-survey pipeline needs.
type Repository struct {
	Owner         string
	Name          string
	FullName      string
	CloneURL      string
	DefaultBranch string
	Private       bool
	Archived      bool
}

// Namespace is the "owner/name" label a survey target is keyed under.
func (r Repository) Namespace() string {
	return r.FullName
}

// Client lists an organization's or user's repositories, rate-limited to
// stay under GitHub's API budget.
type Client struct {
	gh          *github.Client
	rateLimiter *rate.Limiter
}

// NewClient builds a Client. token may be empty for unauthenticated
// access to public repositories, at a much lower rate limit.
func NewClient(token string, rateLimit float64) *Client {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if rateLimit <= 0 {
		rateLimit = 5
	}
	return &Client{
		gh:          gh,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

// NewFromConfig builds a Client from a loaded Config's GitHub section.
func NewFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit)
}

// Filter narrows a repository listing down to what a survey should
// actually pull in.
type Filter struct {
	Allowlist       []string // exact "owner/name" matches; empty means "no restriction"
	Denylist        []string // exact "owner/name" matches, applied after the allowlist
	IncludeForks    bool
	IncludeArchived bool
}

func (f Filter) allows(full string) bool {
	if len(f.Allowlist) == 0 {
		return true
	}
	for _, a := range f.Allowlist {
		if strings.EqualFold(a, full) {
			return true
		}
	}
	return false
}

func (f Filter) denies(full string) bool {
	for _, d := range f.Denylist {
		if strings.EqualFold(d, full) {
			return true
		}
	}
	return false
}

// FilterFromConfig builds a Filter from a Config's GitHub allow/deny lists.
func FilterFromConfig(cfg *config.Config) Filter {
	return Filter{
		Allowlist: cfg.GitHub.RepoAllowlist,
		Denylist:  cfg.GitHub.RepoDenylist,
	}
}

// ListOrg returns every repository under an organization or user account
// that a Filter admits, paginating the same way the teacher's client
// walks ListOptions.NextPage.
func (c *Client) ListOrg(ctx context.Context, owner string, filter Filter) ([]Repository, error) {
	var out []Repository

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, apperrors.Wrap(err, apperrors.TypeConfig, "RateLimitWait", apperrors.SeverityMedium, "rate limiter wait was interrupted")
		}

		repos, resp, err := c.gh.Repositories.ListByOrg(ctx, owner, opts)
		if err != nil {
			// Organizations 404 for user accounts; fall back transparently.
			if isNotFound(err) {
				return c.listUser(ctx, owner, filter)
			}
			return nil, fmt.Errorf("list repositories for %s: %w", owner, err)
		}

		for _, r := range repos {
			rep := toRepository(r)
			if !admits(rep, filter) {
				continue
			}
			out = append(out, rep)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

func (c *Client) listUser(ctx context.Context, user string, filter Filter) ([]Repository, error) {
	var out []Repository

	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, apperrors.Wrap(err, apperrors.TypeConfig, "RateLimitWait", apperrors.SeverityMedium, "rate limiter wait was interrupted")
		}

		repos, resp, err := c.gh.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for user %s: %w", user, err)
		}

		for _, r := range repos {
			rep := toRepository(r)
			if !admits(rep, filter) {
				continue
			}
			out = append(out, rep)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

// Get fetches a single repository's metadata for a caller that already
// knows the exact owner/name pair rather than discovering it via ListOrg.
func (c *Client) Get(ctx context.Context, owner, name string) (Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Repository{}, apperrors.Wrap(err, apperrors.TypeConfig, "RateLimitWait", apperrors.SeverityMedium, "rate limiter wait was interrupted")
	}

	r, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return Repository{}, fmt.Errorf("fetch repository %s/%s: %w", owner, name, err)
	}
	return toRepository(r), nil
}

func admits(r Repository, filter Filter) bool {
	if r.Archived && !filter.IncludeArchived {
		return false
	}
	full := r.FullName
	if filter.denies(full) {
		return false
	}
	return filter.allows(full)
}

func toRepository(r *github.Repository) Repository {
	return Repository{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		CloneURL:      r.GetCloneURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
	}
}

func isNotFound(err error) bool {
	if ghErr, ok := err.(*github.ErrorResponse); ok {
		return ghErr.Response != nil && ghErr.Response.StatusCode == 404
	}
	return false
}

// ParseFullName splits an "owner/name" string, the shape
// Repository.FullName produces.
func ParseFullName(s string) (owner, name string, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository reference %q, expected owner/name", s)
	}
	return parts[0], parts[1], nil
}

// ParseGitURL extracts owner and repo name from an SSH or HTTPS git
// remote URL.
func ParseGitURL(url string) (owner, name string, err error) {
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format: %s", url)
		}
		return ParseFullName(strings.TrimSuffix(parts[1], ".git"))
	}

	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		trimmed := strings.TrimSuffix(url, ".git")
		parts := strings.Split(trimmed, "/")
		if len(parts) < 2 {
			return "", "", fmt.Errorf("invalid HTTPS URL format: %s", url)
		}
		return parts[len(parts)-2], parts[len(parts)-1], nil
	}

	return "", "", fmt.Errorf("unsupported git URL format: %s", url)
}
