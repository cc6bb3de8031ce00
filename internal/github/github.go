package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// Runner executes the gh binary with args and extra environment, returning stdout.
type Runner func(ctx context.Context, env []string, args ...string) ([]byte, error)

type Client struct {
	host   string
	token  string
	run    Runner
	logger *slog.Logger
}

type Option func(*Client)

// WithHost targets a GitHub Enterprise host instead of github.com.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithToken passes token to gh as GH_TOKEN instead of relying on `gh auth login`.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithRunner(r Runner) Option {
	return func(c *Client) { c.run = r }
}

func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{logger: logger, run: execGH}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repo returns an accessor bound to one repository.
func (c *Client) Repo(owner, name string) *Repo {
	return &Repo{
		c:      c,
		owner:  owner,
		name:   name,
		logger: c.logger.With("repo", owner+"/"+name),
	}
}

// CurrentUser returns the authenticated user's login.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if err := c.get(ctx, "user", nil, &u); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return u, nil
}

// ListRepositories lists repositories the user can access, most recently
// updated first. hasMore reports a full page.
func (c *Client) ListRepositories(ctx context.Context, page, perPage int) ([]Repository, bool, error) {
	q := query{
		"sort":      "updated",
		"direction": "desc",
		"per_page":  strconv.Itoa(perPage),
		"page":      strconv.Itoa(page),
	}
	var repos []Repository
	if err := c.get(ctx, "user/repos", q, &repos); err != nil {
		return nil, false, fmt.Errorf("list repositories: %w", err)
	}
	return repos, len(repos) == perPage, nil
}

// SearchRepositories searches the user's repositories by name. An empty query
// falls back to ListRepositories.
func (c *Client) SearchRepositories(ctx context.Context, text string, page int) ([]Repository, error) {
	if strings.TrimSpace(text) == "" {
		repos, _, err := c.ListRepositories(ctx, page, 30)
		return repos, err
	}
	q := query{
		"q":        text + " user:@me",
		"sort":     "updated",
		"per_page": "30",
		"page":     strconv.Itoa(page),
	}
	var res searchResult
	if err := c.get(ctx, "search/repositories", q, &res); err != nil {
		return nil, fmt.Errorf("search repositories %q: %w", text, err)
	}
	return res.Items, nil
}

func (c *Client) GetRepository(ctx context.Context, owner, name string) (Repository, error) {
	var repo Repository
	if err := c.get(ctx, repoPath(owner, name), nil, &repo); err != nil {
		return Repository{}, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	return repo, nil
}

func (c *Client) ListMilestones(ctx context.Context, owner, name string) ([]Milestone, error) {
	q := query{"state": "all", "sort": "due_on", "direction": "desc", "per_page": "100"}
	var ms []Milestone
	if err := c.get(ctx, repoPath(owner, name)+"/milestones", q, &ms); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return ms, nil
}

func (c *Client) ListTags(ctx context.Context, owner, name string) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, repoPath(owner, name)+"/tags", query{"per_page": "100"}, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (c *Client) ListBranches(ctx context.Context, owner, name string) ([]Branch, error) {
	var branches []Branch
	if err := c.get(ctx, repoPath(owner, name)+"/branches", query{"per_page": "100"}, &branches); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

type query map[string]string

// args renders the gh api invocation. Keys are sorted so invocations are stable.
func (c *Client) args(path string, q query) []string {
	args := []string{"api", "--method", "GET"}
	if c.host != "" && c.host != "github.com" {
		args = append(args, "--hostname", c.host)
	}
	args = append(args, path)

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-f", k+"="+q[k])
	}
	return args
}

func (c *Client) get(ctx context.Context, path string, q query, out any) error {
	args := c.args(path, q)
	c.logger.Debug("gh", "args", strings.Join(args, " "))

	var env []string
	if c.token != "" {
		env = append(env, "GH_TOKEN="+c.token)
	}

	data, err := c.run(ctx, env, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func execGH(ctx context.Context, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

func repoPath(owner, name string) string {
	return "repos/" + owner + "/" + name
}
