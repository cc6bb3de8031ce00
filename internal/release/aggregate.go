package release

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/relnotes/internal/github"
)

const (
	DefaultPageSize       = 100
	DefaultMaxPages       = 10
	DefaultCommitPageSize = 100
)

// Aggregator collects pull requests, issues, and commits for a filter.
type Aggregator struct {
	logger         *slog.Logger
	pageSize       int
	maxPages       int
	commitPageSize int
	now            func() time.Time
}

type AggregatorOption func(*Aggregator)

func WithPageSize(n int) AggregatorOption {
	return func(a *Aggregator) { a.pageSize = n }
}

// WithMaxPages caps how many pages each paginated listing may read.
func WithMaxPages(n int) AggregatorOption {
	return func(a *Aggregator) { a.maxPages = n }
}

func WithCommitPageSize(n int) AggregatorOption {
	return func(a *Aggregator) { a.commitPageSize = n }
}

func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(logger *slog.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		logger:         logger,
		pageSize:       DefaultPageSize,
		maxPages:       DefaultMaxPages,
		commitPageSize: DefaultCommitPageSize,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Resolve resolves f against src using the aggregator's clock.
func (a *Aggregator) Resolve(ctx context.Context, src Source, f Filter) Range {
	return Resolve(ctx, src, f, a.now(), a.logger)
}

// Aggregate fetches the three categories concurrently and merges them as pull
// requests, then issues, then commits, each in provider order.
func (a *Aggregator) Aggregate(ctx context.Context, src Source, f Filter) ([]Item, error) {
	r := a.Resolve(ctx, src, f)

	var (
		prs     []github.PullRequest
		issues  []github.Issue
		commits []github.Commit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prs, err = a.pullRequests(gctx, src, r)
		return err
	})
	g.Go(func() error {
		var err error
		issues, err = a.issues(gctx, src, f, r)
		return err
	})
	g.Go(func() error {
		var err error
		commits, err = a.commits(gctx, src, f, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(prs)+len(issues)+len(commits))
	for _, pr := range prs {
		items = append(items, NewPullRequestItem(pr))
	}
	for _, issue := range issues {
		items = append(items, NewIssueItem(issue))
	}
	for _, c := range commits {
		items = append(items, NewCommitItem(c))
	}

	a.logger.Info("aggregated release items",
		"filter", f.String(), "prs", len(prs), "issues", len(issues), "commits", len(commits))
	return items, nil
}

// pullRequests keeps merged pull requests whose merge time falls inside r.
func (a *Aggregator) pullRequests(ctx context.Context, src Source, r Range) ([]github.PullRequest, error) {
	prs, err := paginate(ctx, a.pageSize, a.maxPages, r.Since,
		func(ctx context.Context, page int) ([]github.PullRequest, error) {
			return src.PullRequests(ctx, page, a.pageSize)
		},
		func(pr github.PullRequest) time.Time { return pr.UpdatedAt },
		func(pr github.PullRequest) bool {
			return pr.MergedAt != nil && r.Contains(*pr.MergedAt)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("fetch pull requests: %w", err)
	}
	return prs, nil
}

// issues keeps closed issues inside r, dropping listing entries that are
// really pull requests.
func (a *Aggregator) issues(ctx context.Context, src Source, f Filter, r Range) ([]github.Issue, error) {
	milestone := 0
	if f.Kind == FilterMilestone && f.Milestone != nil {
		milestone = f.Milestone.Number
	}

	issues, err := paginate(ctx, a.pageSize, a.maxPages, r.Since,
		func(ctx context.Context, page int) ([]github.Issue, error) {
			return src.Issues(ctx, page, a.pageSize, milestone)
		},
		func(issue github.Issue) time.Time { return issue.UpdatedAt },
		func(issue github.Issue) bool {
			if issue.PullRequest != nil || issue.ClosedAt == nil {
				return false
			}
			return r.Contains(*issue.ClosedAt)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	return issues, nil
}

// commits uses the compare endpoint for tag and branch filters and a single
// date-bounded page otherwise. Compare failures degrade to no commits.
func (a *Aggregator) commits(ctx context.Context, src Source, f Filter, r Range) ([]github.Commit, error) {
	var base, head string
	switch {
	case f.Kind == FilterTag && f.Tag != nil && f.Tag.From != "":
		base, head = f.Tag.From, f.Tag.To
		if head == "" {
			head = LatestRef
		}
	case f.Kind == FilterBranch && f.Branch != nil && f.Branch.Base != "" && f.Branch.Compare != "":
		base, head = f.Branch.Base, f.Branch.Compare
	default:
		commits, err := src.Commits(ctx, r.Since, r.Until, a.commitPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch commits: %w", err)
		}
		return commits, nil
	}

	commits, err := src.Compare(ctx, base, head)
	if err != nil {
		a.logger.Warn("compare failed, continuing without commits", "base", base, "head", head, "err", err)
		return nil, nil
	}
	return commits, nil
}

// paginate reads pages sequentially until a short or empty page, the page cap,
// or a page whose last entry was updated before since. The listing is sorted by
// update time descending and merge or close time never exceeds update time, so
// later pages cannot hold qualifying entries.
func paginate[T any](
	ctx context.Context,
	perPage, maxPages int,
	since *time.Time,
	fetch func(ctx context.Context, page int) ([]T, error),
	updated func(T) time.Time,
	keep func(T) bool,
) ([]T, error) {
	var out []T
	for page := 1; page <= maxPages; page++ {
		batch, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, entry := range batch {
			if keep(entry) {
				out = append(out, entry)
			}
		}

		if since != nil && updated(batch[len(batch)-1]).Before(*since) {
			break
		}
		if len(batch) < perPage {
			break
		}
	}
	return out, nil
}
