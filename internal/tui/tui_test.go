package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

type fakeSession struct {
	d     draft.Draft
	query string
}

func newFakeSession() *fakeSession {
	return &fakeSession{d: draft.Draft{
		Owner:   "acme",
		Repo:    "widgets",
		Version: "v2.1.0",
		Items: []release.Item{
			release.NewPullRequestItem(github.PullRequest{Number: 42, Title: "Add caching", User: github.User{Login: "alice"}}),
			release.NewPullRequestItem(github.PullRequest{Number: 43, Title: "Fix typo", User: github.User{Login: "bob"}}),
			release.NewIssueItem(github.Issue{Number: 7, Title: "Crash on start"}),
			release.NewCommitItem(github.Commit{SHA: "abc1234def", Commit: github.CommitDetail{Message: "Bump deps"}}),
		},
	}}
}

func (s *fakeSession) Owner() string              { return s.d.Owner }
func (s *fakeSession) Name() string               { return s.d.Repo }
func (s *fakeSession) Draft() (draft.Draft, bool) { return s.d, true }
func (s *fakeSession) Search(q string)            { s.query = q }
func (s *fakeSession) Query() string              { return s.query }

func (s *fakeSession) Items(kind release.ItemKind) []release.Item {
	var out []release.Item
	for _, it := range s.d.Items {
		if it.Kind == kind && it.Matches(s.query) {
			out = append(out, it)
		}
	}
	return out
}

func (s *fakeSession) UpdateItem(_ context.Context, id string, u draft.ItemUpdate) (release.Item, error) {
	for i := range s.d.Items {
		if s.d.Items[i].ID == id {
			if u.Note != nil {
				s.d.Items[i].Note = *u.Note
			}
			if u.Included != nil {
				s.d.Items[i].Included = *u.Included
			}
			return s.d.Items[i], nil
		}
	}
	return release.Item{}, nil
}

func (s *fakeSession) SetAll(_ context.Context, kind release.ItemKind, included bool) (int, error) {
	n := 0
	for i := range s.d.Items {
		if s.d.Items[i].Kind == kind && s.d.Items[i].Included != included {
			s.d.Items[i].Included = included
			n++
		}
	}
	return n, nil
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestToggleSelectedItem(t *testing.T) {
	s := newFakeSession()
	m := press(NewModel(context.Background(), s), "j", " ")

	if it, _ := s.d.Item("pr-43"); it.Included {
		t.Fatalf("expected pr-43 excluded after toggle")
	}
	if it, _ := s.d.Item("pr-42"); !it.Included {
		t.Fatalf("unselected item changed")
	}
	if m.cursor != 1 {
		t.Fatalf("cursor moved unexpectedly: %d", m.cursor)
	}
}

func TestTabsAndIncludeAll(t *testing.T) {
	s := newFakeSession()
	m := press(NewModel(context.Background(), s), "tab", "tab")
	if m.kind() != release.KindCommit {
		t.Fatalf("expected commits tab, got %s", m.kind())
	}

	m = press(m, "a")
	if it, _ := s.d.Item("commit-abc1234def"); !it.Included {
		t.Fatalf("include all did not include commit")
	}
	if !strings.Contains(m.status, "included 1 Commits") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = press(m, "tab")
	if m.kind() != release.KindPullRequest {
		t.Fatalf("tabs should wrap around, got %s", m.kind())
	}
}

func TestEditNote(t *testing.T) {
	s := newFakeSession()
	m := press(NewModel(context.Background(), s), "e")
	if m.mode != modeNote || m.editID != "pr-42" {
		t.Fatalf("expected note editing for pr-42, got mode %d id %q", m.mode, m.editID)
	}

	m = press(m, "B", "i", "g", "enter")
	if it, _ := s.d.Item("pr-42"); it.Note != "Big" {
		t.Fatalf("expected note saved, got %q", it.Note)
	}
	if m.mode != modeBrowse {
		t.Fatalf("expected browse mode after saving")
	}

	m = press(m, "e", "x", "esc")
	if it, _ := s.d.Item("pr-42"); it.Note != "Big" {
		t.Fatalf("escape should discard the edit, got %q", it.Note)
	}
}

func TestSearchNarrowsList(t *testing.T) {
	s := newFakeSession()
	m := press(NewModel(context.Background(), s), "/", "t", "y", "p", "o")
	if s.query != "typo" {
		t.Fatalf("expected live search query, got %q", s.query)
	}
	if got := m.visible(); len(got) != 1 || got[0].ID != "pr-43" {
		t.Fatalf("unexpected visible items %+v", got)
	}

	m = press(m, "enter")
	if m.mode != modeBrowse || s.query != "typo" {
		t.Fatalf("enter should keep the search active")
	}
	press(m, "esc")
	if s.query != "" {
		t.Fatalf("escape in browse mode should clear the search")
	}
}

func TestViewRendersItems(t *testing.T) {
	s := newFakeSession()
	s.d.Items[0].Note = "Big win"
	view := NewModel(context.Background(), s).View()

	for _, want := range []string{"acme/widgets", "v2.1.0", "#42", "Add caching", "@alice", "> Big win", "Pull Requests (2/2)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestQuit(t *testing.T) {
	_, cmd := NewModel(context.Background(), newFakeSession()).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	tests := []struct {
		n, cursor, size, start, end int
	}{
		{5, 0, 10, 0, 5},
		{100, 0, 10, 0, 10},
		{100, 50, 10, 45, 55},
		{100, 99, 10, 90, 100},
	}
	for _, tc := range tests {
		start, end := window(tc.n, tc.cursor, tc.size)
		if start != tc.start || end != tc.end {
			t.Fatalf("window(%d,%d,%d) = %d,%d want %d,%d", tc.n, tc.cursor, tc.size, start, end, tc.start, tc.end)
		}
	}
}

func TestExpandShowsBody(t *testing.T) {
	s := newFakeSession()
	s.d.Items[0].PullRequest.Body = "Adds an LRU in front of the store.\n\nCloses #7."
	m := NewModel(context.Background(), s)

	if strings.Contains(m.View(), "LRU") {
		t.Fatalf("body should be hidden until expanded")
	}
	m = press(m, "v")
	if view := m.View(); !strings.Contains(view, "Adds an LRU in front of the store.") || !strings.Contains(view, "Closes #7.") {
		t.Fatalf("expanded view missing body:\n%s", view)
	}
	m = press(m, "j")
	if !strings.Contains(m.View(), "(no description)") {
		t.Fatalf("expected placeholder for an empty body")
	}
}
