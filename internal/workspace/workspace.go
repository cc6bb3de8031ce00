// Package workspace sequences one repository's release-notes flow:
// configure a filter, review fetched items, export.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/export"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

var (
	ErrNoDraft     = errors.New("no draft for repository")
	ErrUnknownItem = errors.New("unknown item")
)

type Step int

const (
	StepConfigure Step = iota
	StepReview
	StepExport
)

func (s Step) String() string {
	switch s {
	case StepConfigure:
		return "configure"
	case StepReview:
		return "review"
	case StepExport:
		return "export"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Provider is the repository metadata the configure step offers.
type Provider interface {
	GetRepository(ctx context.Context, owner, name string) (github.Repository, error)
	ListMilestones(ctx context.Context, owner, name string) ([]github.Milestone, error)
	ListTags(ctx context.Context, owner, name string) ([]github.Tag, error)
	ListBranches(ctx context.Context, owner, name string) ([]github.Branch, error)
}

// SourceFunc binds provider access to one repository.
type SourceFunc func(owner, name string) release.Source

type Aggregator interface {
	Aggregate(ctx context.Context, src release.Source, f release.Filter) ([]release.Item, error)
}

// Controller opens workspaces against shared clients.
type Controller struct {
	provider Provider
	sources  SourceFunc
	agg      Aggregator
	drafts   *draft.Store
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(provider Provider, sources SourceFunc, agg Aggregator, drafts *draft.Store, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		sources:  sources,
		agg:      agg,
		drafts:   drafts,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workspace is the working copy of one repository's release draft. It is not
// safe for concurrent use.
type Workspace struct {
	c      *Controller
	owner  string
	name   string
	source release.Source
	logger *slog.Logger

	Repository       github.Repository
	Milestones       []github.Milestone
	Tags             []github.Tag
	Branches         []github.Branch
	SuggestedVersion string

	draft      *draft.Draft
	newVersion string
	step       Step
	query      string
}

// Open loads repository metadata and resumes the most recently updated draft.
// A draft that already holds items resumes at the review step.
func (c *Controller) Open(ctx context.Context, owner, name string) (*Workspace, error) {
	w := &Workspace{
		c:      c,
		owner:  owner,
		name:   name,
		source: c.sources(owner, name),
		logger: c.logger.With("repo", owner+"/"+name),
		step:   StepConfigure,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		repo, err := c.provider.GetRepository(gctx, owner, name)
		if err != nil {
			return fmt.Errorf("load repository %s/%s: %w", owner, name, err)
		}
		w.Repository = repo
		return nil
	})
	// Ref listings only feed filter choices; a failure leaves that list empty.
	g.Go(func() error {
		milestones, err := c.provider.ListMilestones(gctx, owner, name)
		if err != nil {
			w.logger.Warn("failed to list milestones", "err", err)
			return nil
		}
		w.Milestones = milestones
		return nil
	})
	g.Go(func() error {
		tags, err := c.provider.ListTags(gctx, owner, name)
		if err != nil {
			w.logger.Warn("failed to list tags", "err", err)
			return nil
		}
		w.Tags = release.SortTags(tags)
		return nil
	})
	g.Go(func() error {
		branches, err := c.provider.ListBranches(gctx, owner, name)
		if err != nil {
			w.logger.Warn("failed to list branches", "err", err)
			return nil
		}
		w.Branches = branches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	w.SuggestedVersion = release.NextPatch(w.Tags)

	if d, ok := c.drafts.Latest(ctx, owner, name); ok {
		w.draft = &d
		if len(d.Items) > 0 {
			w.step = StepReview
		}
		w.logger.Debug("resumed draft", "draft", d.ID, "items", len(d.Items), "step", w.step)
	}
	return w, nil
}

func (w *Workspace) Owner() string { return w.owner }
func (w *Workspace) Name() string  { return w.name }
func (w *Workspace) Step() Step   { return w.step }

// Draft returns a copy of the current draft.
func (w *Workspace) Draft() (draft.Draft, bool) {
	if w.draft == nil {
		return draft.Draft{}, false
	}
	return *w.draft, true
}

// Select switches to another stored draft of this repository.
func (w *Workspace) Select(ctx context.Context, draftID string) error {
	d, ok := w.c.drafts.Get(ctx, draftID)
	if !ok || d.Owner != w.owner || d.Repo != w.name {
		return fmt.Errorf("select draft %s: %w", draftID, ErrNoDraft)
	}
	w.draft = &d
	w.step = StepConfigure
	if len(d.Items) > 0 {
		w.step = StepReview
	}
	return nil
}

// StartNew detaches the current draft without deleting it. The next
// successful Fetch creates a new draft with version.
func (w *Workspace) StartNew(version string) {
	w.draft = nil
	w.newVersion = version
	w.step = StepConfigure
}

// Milestone finds a listed milestone by number.
func (w *Workspace) Milestone(number int) (github.Milestone, bool) {
	for _, m := range w.Milestones {
		if m.Number == number {
			return m, true
		}
	}
	return github.Milestone{}, false
}

// FetchSummary counts fetched items per kind.
type FetchSummary struct {
	PullRequests int
	Issues       int
	Commits      int
}

func (s FetchSummary) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d pull requests, %d issues, %d commits", s.PullRequests, s.Issues, s.Commits)
}

// Fetch aggregates items for f into the current draft, creating one when the
// repository has none, and moves to the review step. Items that were already
// in the draft keep their note and inclusion. On error nothing changes.
func (w *Workspace) Fetch(ctx context.Context, f release.Filter) (FetchSummary, error) {
	if err := f.Validate(); err != nil {
		return FetchSummary{}, err
	}

	start := w.c.now()
	items, err := w.c.agg.Aggregate(ctx, w.source, f)
	if err != nil {
		return FetchSummary{}, fmt.Errorf("fetch %s: %w", f, err)
	}

	if w.draft == nil {
		d := w.c.drafts.Create(ctx, w.owner, w.name, w.newVersion)
		w.draft = &d
		w.newVersion = ""
		w.logger.Info("created draft", "draft", d.ID)
	}
	items = carryOver(w.draft.Items, items)

	w.draft.Filter = &f
	w.draft.Items = items
	saved := w.c.drafts.Save(ctx, *w.draft)
	w.draft = &saved
	w.step = StepReview

	summary := FetchSummary{
		PullRequests: len(release.OfKind(items, release.KindPullRequest)),
		Issues:       len(release.OfKind(items, release.KindIssue)),
		Commits:      len(release.OfKind(items, release.KindCommit)),
	}
	w.logger.Info("fetched items", "filter", f.String(), "pull_requests", summary.PullRequests,
		"issues", summary.Issues, "commits", summary.Commits, "duration", w.c.now().Sub(start))
	return summary, nil
}

func carryOver(prev, next []release.Item) []release.Item {
	if len(prev) == 0 {
		return next
	}
	byID := make(map[string]release.Item, len(prev))
	for _, it := range prev {
		byID[it.ID] = it
	}
	for i := range next {
		if old, ok := byID[next[i].ID]; ok {
			next[i].Included = old.Included
			next[i].Note = old.Note
		}
	}
	return next
}

// Items returns the draft's items of kind that match the active search.
func (w *Workspace) Items(kind release.ItemKind) []release.Item {
	if w.draft == nil {
		return nil
	}
	var out []release.Item
	for _, it := range w.draft.Items {
		if it.Kind == kind && it.Matches(w.query) {
			out = append(out, it)
		}
	}
	return out
}

// Search sets the review filter text; empty shows everything.
func (w *Workspace) Search(query string) {
	w.query = query
}

func (w *Workspace) Query() string { return w.query }

// UpdateItem applies u to the working copy and persists it.
func (w *Workspace) UpdateItem(ctx context.Context, itemID string, u draft.ItemUpdate) (release.Item, error) {
	if w.draft == nil {
		return release.Item{}, ErrNoDraft
	}
	idx := -1
	for i := range w.draft.Items {
		if w.draft.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return release.Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	if u.Note != nil {
		w.draft.Items[idx].Note = *u.Note
	}
	if u.Included != nil {
		w.draft.Items[idx].Included = *u.Included
	}

	if saved, ok := w.c.drafts.UpdateItem(ctx, w.draft.ID, itemID, u); ok {
		w.draft.UpdatedAt = saved.UpdatedAt
	} else {
		// The stored record is missing or unreadable; write the working copy.
		saved := w.c.drafts.Save(ctx, *w.draft)
		w.draft = &saved
	}
	return w.draft.Items[idx], nil
}

// SetAll includes or excludes every item of kind matching the active search
// and returns how many changed.
func (w *Workspace) SetAll(ctx context.Context, kind release.ItemKind, included bool) (int, error) {
	if w.draft == nil {
		return 0, ErrNoDraft
	}
	changed := 0
	for i := range w.draft.Items {
		it := &w.draft.Items[i]
		if it.Kind == kind && it.Included != included && it.Matches(w.query) {
			it.Included = included
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if saved, ok := w.c.drafts.SetItems(ctx, w.draft.ID, w.draft.Items); ok {
		w.draft.UpdatedAt = saved.UpdatedAt
	} else {
		saved := w.c.drafts.Save(ctx, *w.draft)
		w.draft = &saved
	}
	return changed, nil
}

// Meta holds optional draft metadata edits. Nil fields are left alone.
type Meta struct {
	Version     *string
	Title       *string
	Description *string
}

func (w *Workspace) UpdateMeta(ctx context.Context, m Meta) (draft.Draft, error) {
	if w.draft == nil {
		return draft.Draft{}, ErrNoDraft
	}
	if m.Version != nil {
		w.draft.Version = *m.Version
	}
	if m.Title != nil {
		w.draft.Title = *m.Title
	}
	if m.Description != nil {
		w.draft.Description = *m.Description
	}
	saved := w.c.drafts.Save(ctx, *w.draft)
	w.draft = &saved
	return saved, nil
}

// Proceed saves the draft and moves to the export step.
func (w *Workspace) Proceed(ctx context.Context) error {
	if w.draft == nil {
		return ErrNoDraft
	}
	saved := w.c.drafts.Save(ctx, *w.draft)
	w.draft = &saved
	w.step = StepExport
	return nil
}

// Export projects the draft's included items. now is recorded as the release date.
func (w *Workspace) Export(now time.Time) (export.Release, error) {
	if w.draft == nil {
		return export.Release{}, ErrNoDraft
	}
	return export.ToExport(*w.draft, w.draft.Items, w.Repository, now), nil
}
