package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

var (
	frozen = time.Date(2024, 6, 3, 15, 4, 5, 0, time.UTC)
	repo   = github.Repository{
		Name:    "widgets",
		Owner:   github.User{Login: "acme"},
		HTMLURL: "https://github.com/acme/widgets",
	}
)

func cachingPR() release.Item {
	it := release.NewPullRequestItem(github.PullRequest{
		Number:  42,
		Title:   "Add caching",
		HTMLURL: "https://github.com/acme/widgets/pull/42",
		User:    github.User{Login: "alice"},
		Labels:  []github.Label{{Name: "perf"}},
	})
	it.Note = "Big win"
	return it
}

func TestMarkdownSinglePullRequest(t *testing.T) {
	d := draft.Draft{Version: "v2.1.0"}
	items := []release.Item{cachingPR()}

	md := ToMarkdown(ToExport(d, items, repo, frozen))

	if strings.Count(md, "## Pull Requests") != 1 {
		t.Fatalf("expected exactly one pull request section:\n%s", md)
	}
	want := "- [#42](https://github.com/acme/widgets/pull/42) Add caching (@alice) `perf`\n  > Big win\n"
	if !strings.Contains(md, want) {
		t.Fatalf("missing item line %q in:\n%s", want, md)
	}
	for _, heading := range []string{"## Issues Fixed", "## Commits"} {
		if strings.Contains(md, heading) {
			t.Fatalf("unexpected %q section:\n%s", heading, md)
		}
	}
	if !strings.HasPrefix(md, "# Release v2.1.0\n\n**Version:** v2.1.0\n**Date:** June 3, 2024\n\n") {
		t.Fatalf("unexpected header:\n%s", md)
	}
	if !strings.HasSuffix(md, "---\n*Generated from [acme/widgets](https://github.com/acme/widgets)*\n") {
		t.Fatalf("unexpected footer:\n%s", md)
	}
}

func TestExportOnlyIncludedItems(t *testing.T) {
	excluded := release.NewIssueItem(github.Issue{Number: 7, Title: "Crash"})
	excluded.Included = false
	c := release.NewCommitItem(github.Commit{SHA: "deadbeef", Commit: github.CommitDetail{Message: "noise"}})

	e := ToExport(draft.Draft{}, []release.Item{cachingPR(), excluded, c}, repo, frozen)
	if len(e.PullRequests) != 1 || len(e.Issues) != 0 || len(e.Commits) != 0 {
		t.Fatalf("unexpected projection %+v", e)
	}
	if strings.Contains(ToMarkdown(e), "## Commits") {
		t.Fatalf("commits heading rendered without included commits")
	}
}

func TestExportCommitRendering(t *testing.T) {
	c := release.NewCommitItem(github.Commit{
		SHA:     "0123456789abcdef",
		HTMLURL: "https://github.com/acme/widgets/commit/0123456789abcdef",
		Commit:  github.CommitDetail{Message: "Fix race in cache\n\nLong explanation", Author: github.CommitAuthor{Name: "Carol"}},
	})
	c.Included = true

	e := ToExport(draft.Draft{}, []release.Item{c}, repo, frozen)
	if e.Commits[0].Message != "Fix race in cache" {
		t.Fatalf("commit message should be truncated to first line, got %q", e.Commits[0].Message)
	}
	md := ToMarkdown(e)
	want := "- [`0123456`](https://github.com/acme/widgets/commit/0123456789abcdef) Fix race in cache (@Carol)\n"
	if !strings.Contains(md, want) {
		t.Fatalf("missing commit line %q in:\n%s", want, md)
	}
	if strings.Contains(md, "Long explanation") {
		t.Fatalf("commit body leaked into export")
	}
}

func TestExportDefaults(t *testing.T) {
	e := ToExport(draft.Draft{}, nil, repo, frozen)
	if e.Title != "Release " {
		t.Fatalf("expected default title with empty version, got %q", e.Title)
	}
	md := ToMarkdown(e)
	if !strings.Contains(md, "**Version:** Unreleased\n") {
		t.Fatalf("expected Unreleased version line:\n%s", md)
	}

	titled := ToExport(draft.Draft{Version: "v1", Title: "Spring", Description: "Highlights."}, nil, repo, frozen)
	md = ToMarkdown(titled)
	if !strings.HasPrefix(md, "# Spring\n") || !strings.Contains(md, "\n\nHighlights.\n\n") {
		t.Fatalf("unexpected titled markdown:\n%s", md)
	}
}

func TestExportIsIdempotent(t *testing.T) {
	f := release.TagsOf("v2.0.0", "v2.1.0")
	d := draft.Draft{Version: "v2.1.0", Filter: &f, Description: "Notes"}
	items := []release.Item{cachingPR(), release.NewIssueItem(github.Issue{Number: 9, Title: "Leak", User: github.User{Login: "bob"}})}

	first := ToExport(d, items, repo, frozen)
	second := ToExport(d, items, repo, frozen)
	if ToMarkdown(first) != ToMarkdown(second) {
		t.Fatalf("markdown differs between runs")
	}
	a, err := JSON(first)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	b, _ := JSON(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("json differs between runs")
	}
	if !bytes.Contains(a, []byte(`"labels": []`)) {
		t.Fatalf("labels should encode as an empty array:\n%s", a)
	}
}

func TestSummary(t *testing.T) {
	c := release.NewCommitItem(github.Commit{SHA: "abcdef0123", Commit: github.CommitDetail{Message: "Tidy"}})
	c.Included = true
	c.Note = "cleanup"

	e := ToExport(draft.Draft{Description: "Intro"}, []release.Item{cachingPR(), c}, repo, frozen)
	want := strings.Join([]string{
		"Intro",
		"",
		"## Pull Requests",
		"",
		"- Add caching (#42) - Big win",
		"",
		"## Commits",
		"",
		"- Tidy (abcdef0) - cleanup",
	}, "\n")
	if e.Summary != want {
		t.Fatalf("summary =\n%s\nwant\n%s", e.Summary, want)
	}
}

func TestFilenameAndWriteFile(t *testing.T) {
	if got := Filename(Release{Version: "v2.1.0"}, "md"); got != "release-notes-v2.1.0.md" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := Filename(Release{}, "json"); got != "release-notes-draft.json" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := Filename(Release{Version: "feature/x y"}, "md"); got != "release-notes-feature-x-y.md" {
		t.Fatalf("unsafe characters should be replaced, got %q", got)
	}

	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteFile(dir, "release-v1.md", []byte("# hi\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "# hi\n" {
		t.Fatalf("unexpected file contents %q, %v", data, err)
	}
}

func TestCopy(t *testing.T) {
	origWrite, origAvail := writeClipboard, clipboardAvailable
	t.Cleanup(func() { writeClipboard, clipboardAvailable = origWrite, origAvail })

	var copied string
	clipboardAvailable = func() bool { return true }
	writeClipboard = func(s string) error { copied = s; return nil }
	if err := Copy("notes"); err != nil || copied != "notes" {
		t.Fatalf("copy failed: %v (copied %q)", err, copied)
	}

	writeClipboard = func(string) error { return errors.New("xclip missing") }
	if err := Copy("notes"); err == nil || !strings.Contains(err.Error(), "copy export") {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	clipboardAvailable = func() bool { return false }
	if err := Copy("notes"); err == nil {
		t.Fatalf("expected error when clipboard is unavailable")
	}
}
