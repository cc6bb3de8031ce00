package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/logging"
	"github.com/marcin-skalski/relnotes/internal/release"
	"github.com/marcin-skalski/relnotes/internal/storage/memory"
)

type fakeProvider struct {
	repoErr error
	tagErr  error
	tags    []github.Tag
}

func (p *fakeProvider) GetRepository(_ context.Context, owner, name string) (github.Repository, error) {
	if p.repoErr != nil {
		return github.Repository{}, p.repoErr
	}
	return github.Repository{
		Name:    name,
		Owner:   github.User{Login: owner},
		HTMLURL: "https://github.com/" + owner + "/" + name,
	}, nil
}

func (p *fakeProvider) ListMilestones(context.Context, string, string) ([]github.Milestone, error) {
	return []github.Milestone{{ID: 100, Number: 4, Title: "Q3"}}, nil
}

func (p *fakeProvider) ListTags(context.Context, string, string) ([]github.Tag, error) {
	return p.tags, p.tagErr
}

func (p *fakeProvider) ListBranches(context.Context, string, string) ([]github.Branch, error) {
	return []github.Branch{{Name: "main"}}, nil
}

type fakeAggregator struct {
	items []release.Item
	err   error
	calls int
}

func (a *fakeAggregator) Aggregate(context.Context, release.Source, release.Filter) ([]release.Item, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	out := make([]release.Item, len(a.items))
	copy(out, a.items)
	return out, nil
}

func fixtureItems() []release.Item {
	return []release.Item{
		release.NewPullRequestItem(github.PullRequest{Number: 42, Title: "Add caching", User: github.User{Login: "alice"}}),
		release.NewPullRequestItem(github.PullRequest{Number: 43, Title: "Fix typo", User: github.User{Login: "bob"}}),
		release.NewIssueItem(github.Issue{Number: 7, Title: "Crash on start"}),
		release.NewCommitItem(github.Commit{SHA: "abc1234", Commit: github.CommitDetail{Message: "Bump deps"}}),
	}
}

type harness struct {
	ctrl   *Controller
	drafts *draft.Store
	agg    *fakeAggregator
	prov   *fakeProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.Discard()
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	drafts := draft.NewStore(memory.New(), logger, draft.WithClock(tick))
	agg := &fakeAggregator{items: fixtureItems()}
	prov := &fakeProvider{tags: []github.Tag{{Name: "v1.2.0"}, {Name: "v1.10.1"}}}
	sources := func(owner, name string) release.Source { return nil }
	return &harness{
		ctrl:   New(prov, sources, agg, drafts, logger, WithClock(tick)),
		drafts: drafts,
		agg:    agg,
		prov:   prov,
	}
}

func TestOpenWithoutDraftStartsAtConfigure(t *testing.T) {
	h := newHarness(t)

	w, err := h.ctrl.Open(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if w.Step() != StepConfigure {
		t.Fatalf("expected configure step, got %s", w.Step())
	}
	if _, ok := w.Draft(); ok {
		t.Fatalf("expected no draft")
	}
	if w.Tags[0].Name != "v1.10.1" || w.SuggestedVersion != "v1.10.2" {
		t.Fatalf("unexpected tag handling: %v, suggested %q", w.Tags, w.SuggestedVersion)
	}
	if m, ok := w.Milestone(4); !ok || m.ID != 100 {
		t.Fatalf("expected milestone lookup by number")
	}
}

func TestOpenResumesLatestDraftWithItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drafts.Create(ctx, "acme", "widgets", "v1")
	filled := h.drafts.Create(ctx, "acme", "widgets", "v2")
	h.drafts.SetItems(ctx, filled.ID, fixtureItems())

	w, err := h.ctrl.Open(ctx, "acme", "widgets")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	d, ok := w.Draft()
	if !ok || d.ID != filled.ID {
		t.Fatalf("expected latest draft %s, got %+v", filled.ID, d)
	}
	if w.Step() != StepReview {
		t.Fatalf("draft with items should resume at review, got %s", w.Step())
	}
}

func TestOpenFailsWhenRepositoryUnavailable(t *testing.T) {
	h := newHarness(t)
	h.prov.repoErr = errors.New("HTTP 404: Not Found")

	if _, err := h.ctrl.Open(context.Background(), "acme", "gone"); err == nil || !strings.Contains(err.Error(), "load repository acme/gone") {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestOpenToleratesRefListingFailure(t *testing.T) {
	h := newHarness(t)
	h.prov.tagErr = errors.New("timeout")

	w, err := h.ctrl.Open(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("tag failure should not fail open: %v", err)
	}
	if len(w.Tags) != 0 || w.SuggestedVersion != "" || len(w.Branches) != 1 {
		t.Fatalf("unexpected metadata after tag failure: %+v", w)
	}
}

func TestFetchCreatesDraftAndMovesToReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")

	summary, err := w.Fetch(ctx, release.TagsOf("v1.0.0", ""))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if summary != (FetchSummary{PullRequests: 2, Issues: 1, Commits: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if w.Step() != StepReview {
		t.Fatalf("expected review step, got %s", w.Step())
	}

	stored, ok := h.drafts.Latest(ctx, "acme", "widgets")
	if !ok || len(stored.Items) != 4 || stored.Filter == nil || stored.Filter.Kind != release.FilterTag {
		t.Fatalf("fetch result not persisted: %+v", stored)
	}
}

func TestFetchFailureKeepsStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	h.agg.err = errors.New("HTTP 401: Bad credentials")

	if _, err := w.Fetch(ctx, release.BranchesOf("main", "next")); err == nil {
		t.Fatalf("expected fetch error")
	}
	if w.Step() != StepConfigure {
		t.Fatalf("step changed after failure: %s", w.Step())
	}
	if len(h.drafts.List(ctx)) != 0 {
		t.Fatalf("failed fetch must not create a draft")
	}
}

func TestFetchRejectsInvalidFilter(t *testing.T) {
	h := newHarness(t)
	w, _ := h.ctrl.Open(context.Background(), "acme", "widgets")

	_, err := w.Fetch(context.Background(), release.BranchesOf("main", ""))
	if !errors.Is(err, release.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	if h.agg.calls != 0 {
		t.Fatalf("aggregator should not run for an invalid filter")
	}
}

func TestRefetchKeepsNotesAndInclusion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	if _, err := w.Fetch(ctx, release.TagsOf("v1.0.0", "")); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	note := "Big win"
	off := false
	if _, err := w.UpdateItem(ctx, "pr-42", draft.ItemUpdate{Note: &note, Included: &off}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := w.Fetch(ctx, release.TagsOf("v1.0.0", "")); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	d, _ := w.Draft()
	it, _ := d.Item("pr-42")
	if it.Note != "Big win" || it.Included {
		t.Fatalf("refetch dropped edits: %+v", it)
	}
}

func TestUpdateItemPersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	if _, err := w.UpdateItem(ctx, "pr-42", draft.ItemUpdate{}); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	w.Fetch(ctx, release.DatesOf(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil))

	on := true
	it, err := w.UpdateItem(ctx, "commit-abc1234", draft.ItemUpdate{Included: &on})
	if err != nil || !it.Included {
		t.Fatalf("update: %+v, %v", it, err)
	}
	d, _ := w.Draft()
	stored, _ := h.drafts.Get(ctx, d.ID)
	c, _ := stored.Item("commit-abc1234")
	if !c.Included {
		t.Fatalf("update not persisted")
	}

	if _, err := w.UpdateItem(ctx, "pr-999", draft.ItemUpdate{Included: &on}); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestSearchAndSetAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	w.Fetch(ctx, release.TagsOf("v1.0.0", ""))

	w.Search("typo")
	visible := w.Items(release.KindPullRequest)
	if len(visible) != 1 || visible[0].ID != "pr-43" {
		t.Fatalf("unexpected search result %+v", visible)
	}

	changed, err := w.SetAll(ctx, release.KindPullRequest, false)
	if err != nil || changed != 1 {
		t.Fatalf("expected one change, got %d, %v", changed, err)
	}
	w.Search("")
	d, _ := w.Draft()
	if a, _ := d.Item("pr-42"); !a.Included {
		t.Fatalf("items hidden by search must not change")
	}
	stored, _ := h.drafts.Get(ctx, d.ID)
	if b, _ := stored.Item("pr-43"); b.Included {
		t.Fatalf("bulk change not persisted")
	}
}

func TestMetaProceedAndExport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	if err := w.Proceed(ctx); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	w.Fetch(ctx, release.TagsOf("v1.0.0", ""))

	version, desc := "v2.1.0", "Highlights"
	if _, err := w.UpdateMeta(ctx, Meta{Version: &version, Description: &desc}); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if err := w.Proceed(ctx); err != nil {
		t.Fatalf("proceed: %v", err)
	}
	if w.Step() != StepExport {
		t.Fatalf("expected export step, got %s", w.Step())
	}

	e, err := w.Export(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if e.Title != "Release v2.1.0" || e.Repository.URL != "https://github.com/acme/widgets" {
		t.Fatalf("unexpected export header %+v", e)
	}
	if len(e.PullRequests) != 2 || len(e.Issues) != 1 || len(e.Commits) != 0 {
		t.Fatalf("unexpected export projection %+v", e)
	}
}

func TestStartNewAndSelect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, _ := h.ctrl.Open(ctx, "acme", "widgets")
	w.Fetch(ctx, release.TagsOf("v1.0.0", ""))
	first, _ := w.Draft()

	w.StartNew("v3.0.0")
	if _, ok := w.Draft(); ok || w.Step() != StepConfigure {
		t.Fatalf("start new should detach the draft and return to configure")
	}
	h.agg.err = errors.New("network down")
	if _, err := w.Fetch(ctx, release.TagsOf("v2.0.0", "")); err == nil {
		t.Fatalf("expected fetch error")
	}
	if len(h.drafts.List(ctx)) != 1 {
		t.Fatalf("failed fetch must not create the new draft")
	}
	h.agg.err = nil
	if _, err := w.Fetch(ctx, release.TagsOf("v2.0.0", "")); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	fresh, _ := w.Draft()
	if fresh.ID == first.ID || fresh.Version != "v3.0.0" || !strings.HasPrefix(fresh.ID, "acme/widgets/v3.0.0-") {
		t.Fatalf("expected a new v3.0.0 draft, got %+v", fresh)
	}

	if err := w.Select(ctx, first.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if w.Step() != StepReview {
		t.Fatalf("selecting a filled draft should resume review")
	}
	other := h.drafts.Create(ctx, "acme", "other", "")
	if err := w.Select(ctx, other.ID); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("selecting another repository's draft should fail, got %v", err)
	}
}

func TestFetchSummaryGroupsThousands(t *testing.T) {
	s := FetchSummary{PullRequests: 1000, Issues: 2, Commits: 100}
	if got := s.String(); got != "1,000 pull requests, 2 issues, 100 commits" {
		t.Fatalf("unexpected summary %q", got)
	}
}
