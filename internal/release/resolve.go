package release

import (
	"context"
	"log/slog"
	"time"

	"github.com/marcin-skalski/relnotes/internal/github"
)

// Source is the provider access the resolver and aggregator need, bound to one
// repository. *github.Repo implements it.
type Source interface {
	PullRequests(ctx context.Context, page, perPage int) ([]github.PullRequest, error)
	Issues(ctx context.Context, page, perPage, milestone int) ([]github.Issue, error)
	Commits(ctx context.Context, since, until *time.Time, perPage int) ([]github.Commit, error)
	Compare(ctx context.Context, base, head string) ([]github.Commit, error)
	Ref(ctx context.Context, ref string) (github.Ref, error)
	Tag(ctx context.Context, sha string) (github.AnnotatedTag, error)
	GitCommit(ctx context.Context, sha string) (github.GitCommit, error)
}

// LatestRef is the compare head used when a tag range has no end tag.
const LatestRef = "HEAD"

// CompareRef asks for the commits reachable from Head but not from Base.
type CompareRef struct {
	Base string
	Head string
}

// Range is a resolved filter: a date window, where nil bounds are open, and
// optionally a compare reference for commit selection.
type Range struct {
	Since   *time.Time
	Until   *time.Time
	Compare *CompareRef
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (r Range) Contains(t time.Time) bool {
	if r.Since != nil && t.Before(*r.Since) {
		return false
	}
	if r.Until != nil && t.After(*r.Until) {
		return false
	}
	return true
}

// Resolve turns a filter into a concrete Range. Lookup failures are logged and
// degrade to an open window; they are never returned.
func Resolve(ctx context.Context, src Source, f Filter, now time.Time, logger *slog.Logger) Range {
	switch f.Kind {
	case FilterDate:
		if f.Date == nil {
			return Range{}
		}
		since := f.Date.From
		return Range{Since: &since, Until: f.Date.To}

	case FilterMilestone:
		if f.Milestone == nil {
			return Range{}
		}
		// Milestones have no start date; creation time stands in for one.
		until := now
		if f.Milestone.DueOn != nil {
			until = *f.Milestone.DueOn
		}
		return Range{Since: f.Milestone.CreatedAt, Until: &until}

	case FilterTag:
		if f.Tag == nil || f.Tag.From == "" {
			return Range{}
		}
		head := f.Tag.To
		if head == "" {
			head = LatestRef
		}
		r := Range{Compare: &CompareRef{Base: f.Tag.From, Head: head}}

		since, err := tagDate(ctx, src, f.Tag.From)
		if err != nil {
			logger.Warn("resolve tag date failed, using open window", "tag", f.Tag.From, "err", err)
			return r
		}
		r.Since = &since
		if f.Tag.To == "" {
			r.Until = &now
		}
		return r

	case FilterBranch:
		if f.Branch == nil {
			return Range{}
		}
		return Range{Compare: &CompareRef{Base: f.Branch.Base, Head: f.Branch.Compare}}
	}
	return Range{}
}

// tagDate returns the author date of the commit a tag points at, following an
// annotated tag object one level.
func tagDate(ctx context.Context, src Source, tag string) (time.Time, error) {
	ref, err := src.Ref(ctx, "tags/"+tag)
	if err != nil {
		return time.Time{}, err
	}

	sha := ref.Object.SHA
	if ref.Object.Type == "tag" {
		obj, err := src.Tag(ctx, sha)
		if err != nil {
			return time.Time{}, err
		}
		sha = obj.Object.SHA
	}

	commit, err := src.GitCommit(ctx, sha)
	if err != nil {
		return time.Time{}, err
	}
	return commit.Author.Date, nil
}
