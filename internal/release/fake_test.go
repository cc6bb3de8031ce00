package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/logging"
)

// fakeSource serves canned pages and records what was asked for.
type fakeSource struct {
	mu sync.Mutex

	prPages    [][]github.PullRequest
	issuePages [][]github.Issue
	commits    []github.Commit
	compare    map[string][]github.Commit
	compareErr error
	prErr      error

	refs       map[string]github.Ref
	tags       map[string]github.AnnotatedTag
	gitCommits map[string]github.GitCommit

	prPagesRead    []int
	issuePagesRead []int
	issueMilestone int
	commitSince    *time.Time
	commitUntil    *time.Time
	commitCalls    int
	compareCalls   []string
}

func (f *fakeSource) PullRequests(_ context.Context, page, _ int) ([]github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prPagesRead = append(f.prPagesRead, page)
	if f.prErr != nil {
		return nil, f.prErr
	}
	if page-1 < len(f.prPages) {
		return f.prPages[page-1], nil
	}
	return nil, nil
}

func (f *fakeSource) Issues(_ context.Context, page, _, milestone int) ([]github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issuePagesRead = append(f.issuePagesRead, page)
	f.issueMilestone = milestone
	if page-1 < len(f.issuePages) {
		return f.issuePages[page-1], nil
	}
	return nil, nil
}

func (f *fakeSource) Commits(_ context.Context, since, until *time.Time, _ int) ([]github.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	f.commitSince, f.commitUntil = since, until
	return f.commits, nil
}

func (f *fakeSource) Compare(_ context.Context, base, head string) ([]github.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := base + "..." + head
	f.compareCalls = append(f.compareCalls, key)
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	commits, ok := f.compare[key]
	if !ok {
		return nil, fmt.Errorf("compare %s: not found", key)
	}
	return commits, nil
}

func (f *fakeSource) Ref(_ context.Context, ref string) (github.Ref, error) {
	r, ok := f.refs[ref]
	if !ok {
		return github.Ref{}, errors.New("ref not found")
	}
	return r, nil
}

func (f *fakeSource) Tag(_ context.Context, sha string) (github.AnnotatedTag, error) {
	t, ok := f.tags[sha]
	if !ok {
		return github.AnnotatedTag{}, errors.New("tag object not found")
	}
	return t, nil
}

func (f *fakeSource) GitCommit(_ context.Context, sha string) (github.GitCommit, error) {
	c, ok := f.gitCommits[sha]
	if !ok {
		return github.GitCommit{}, errors.New("commit not found")
	}
	return c, nil
}

func discardLogger() *slog.Logger {
	return logging.Discard()
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func mergedPR(number int, merged, updated time.Time) github.PullRequest {
	return github.PullRequest{
		Number:    number,
		Title:     fmt.Sprintf("PR %d", number),
		User:      github.User{Login: "alice"},
		MergedAt:  ptr(merged),
		ClosedAt:  ptr(merged),
		UpdatedAt: updated,
	}
}

func closedIssue(number int, closed, updated time.Time) github.Issue {
	return github.Issue{
		Number:    number,
		Title:     fmt.Sprintf("Issue %d", number),
		User:      github.User{Login: "bob"},
		ClosedAt:  ptr(closed),
		UpdatedAt: updated,
	}
}

func commit(sha, message string) github.Commit {
	return github.Commit{
		SHA:    sha,
		Commit: github.CommitDetail{Message: message, Author: github.CommitAuthor{Name: "Carol"}},
	}
}
