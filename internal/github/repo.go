package github

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Repo reads change data for a single repository.
type Repo struct {
	c      *Client
	owner  string
	name   string
	logger *slog.Logger
}

func (r *Repo) Owner() string { return r.owner }
func (r *Repo) Name() string  { return r.name }

// PullRequests returns one page of closed pull requests, most recently updated first.
func (r *Repo) PullRequests(ctx context.Context, page, perPage int) ([]PullRequest, error) {
	q := query{
		"state":     "closed",
		"sort":      "updated",
		"direction": "desc",
		"per_page":  strconv.Itoa(perPage),
		"page":      strconv.Itoa(page),
	}
	var prs []PullRequest
	if err := r.c.get(ctx, r.path("pulls"), q, &prs); err != nil {
		return nil, fmt.Errorf("list pull requests page %d: %w", page, err)
	}
	return prs, nil
}

// Issues returns one page of closed issues, most recently updated first. The
// listing includes pull requests. milestone > 0 scopes the listing server-side.
func (r *Repo) Issues(ctx context.Context, page, perPage, milestone int) ([]Issue, error) {
	q := query{
		"state":     "closed",
		"sort":      "updated",
		"direction": "desc",
		"per_page":  strconv.Itoa(perPage),
		"page":      strconv.Itoa(page),
	}
	if milestone > 0 {
		q["milestone"] = strconv.Itoa(milestone)
	}
	var issues []Issue
	if err := r.c.get(ctx, r.path("issues"), q, &issues); err != nil {
		return nil, fmt.Errorf("list issues page %d: %w", page, err)
	}
	return issues, nil
}

// Commits returns a single page of commits on the default branch bounded by
// since and until when set.
func (r *Repo) Commits(ctx context.Context, since, until *time.Time, perPage int) ([]Commit, error) {
	q := query{"per_page": strconv.Itoa(perPage)}
	if since != nil {
		q["since"] = since.UTC().Format(time.RFC3339)
	}
	if until != nil {
		q["until"] = until.UTC().Format(time.RFC3339)
	}
	var commits []Commit
	if err := r.c.get(ctx, r.path("commits"), q, &commits); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	return commits, nil
}

// Compare returns the commits reachable from head but not from base, oldest first.
func (r *Repo) Compare(ctx context.Context, base, head string) ([]Commit, error) {
	var cmp comparison
	if err := r.c.get(ctx, r.path("compare/"+base+"..."+head), nil, &cmp); err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, err)
	}
	r.logger.Debug("compared refs", "base", base, "head", head, "status", cmp.Status, "ahead_by", cmp.AheadBy)
	return cmp.Commits, nil
}

// Ref looks up a git reference such as "tags/v1.2.0".
func (r *Repo) Ref(ctx context.Context, ref string) (Ref, error) {
	var out Ref
	if err := r.c.get(ctx, r.path("git/ref/"+ref), nil, &out); err != nil {
		return Ref{}, fmt.Errorf("get ref %s: %w", ref, err)
	}
	return out, nil
}

// Tag loads an annotated tag object.
func (r *Repo) Tag(ctx context.Context, sha string) (AnnotatedTag, error) {
	var out AnnotatedTag
	if err := r.c.get(ctx, r.path("git/tags/"+sha), nil, &out); err != nil {
		return AnnotatedTag{}, fmt.Errorf("get tag object %s: %w", sha, err)
	}
	return out, nil
}

func (r *Repo) GitCommit(ctx context.Context, sha string) (GitCommit, error) {
	var out GitCommit
	if err := r.c.get(ctx, r.path("git/commits/"+sha), nil, &out); err != nil {
		return GitCommit{}, fmt.Errorf("get commit %s: %w", sha, err)
	}
	return out, nil
}

func (r *Repo) path(suffix string) string {
	return repoPath(r.owner, r.name) + "/" + suffix
}
