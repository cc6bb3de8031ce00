package release

import (
	"strconv"
	"strings"

	"github.com/marcin-skalski/relnotes/internal/github"
)

type ItemKind string

const (
	KindPullRequest ItemKind = "pr"
	KindIssue       ItemKind = "issue"
	KindCommit      ItemKind = "commit"
)

// Kinds lists item kinds in merge order.
var Kinds = []ItemKind{KindPullRequest, KindIssue, KindCommit}

func (k ItemKind) Label() string {
	switch k {
	case KindPullRequest:
		return "Pull Requests"
	case KindIssue:
		return "Issues"
	case KindCommit:
		return "Commits"
	default:
		return string(k)
	}
}

// Item is one pull request, issue, or commit considered for a release. The
// payload field matching Kind is the only one set.
type Item struct {
	ID       string   `json:"id"`
	Kind     ItemKind `json:"type"`
	Included bool     `json:"included"`
	Note     string   `json:"note"`

	PullRequest *github.PullRequest `json:"pullRequest,omitempty"`
	Issue       *github.Issue       `json:"issue,omitempty"`
	Commit      *github.Commit      `json:"commit,omitempty"`
}

// ItemID derives the stable id "<kind>-<natural key>".
func ItemID(kind ItemKind, key string) string {
	return string(kind) + "-" + key
}

func NewPullRequestItem(pr github.PullRequest) Item {
	return Item{
		ID:          ItemID(KindPullRequest, strconv.Itoa(pr.Number)),
		Kind:        KindPullRequest,
		Included:    true,
		PullRequest: &pr,
	}
}

func NewIssueItem(issue github.Issue) Item {
	return Item{
		ID:       ItemID(KindIssue, strconv.Itoa(issue.Number)),
		Kind:     KindIssue,
		Included: true,
		Issue:    &issue,
	}
}

// NewCommitItem starts excluded; commits are numerous and mostly noise.
func NewCommitItem(c github.Commit) Item {
	return Item{
		ID:     ItemID(KindCommit, c.SHA),
		Kind:   KindCommit,
		Commit: &c,
	}
}

// Key is the natural key: the PR or issue number, or the commit sha.
func (it Item) Key() string {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return strconv.Itoa(it.PullRequest.Number)
		}
	case KindIssue:
		if it.Issue != nil {
			return strconv.Itoa(it.Issue.Number)
		}
	case KindCommit:
		if it.Commit != nil {
			return it.Commit.SHA
		}
	}
	return ""
}

func (it Item) Number() int {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return it.PullRequest.Number
		}
	case KindIssue:
		if it.Issue != nil {
			return it.Issue.Number
		}
	}
	return 0
}

// Title is the PR or issue title, or the first line of a commit message.
func (it Item) Title() string {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return it.PullRequest.Title
		}
	case KindIssue:
		if it.Issue != nil {
			return it.Issue.Title
		}
	case KindCommit:
		if it.Commit != nil {
			return FirstLine(it.Commit.Commit.Message)
		}
	}
	return ""
}

// Body is the PR or issue description, or the full commit message.
func (it Item) Body() string {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return it.PullRequest.Body
		}
	case KindIssue:
		if it.Issue != nil {
			return it.Issue.Body
		}
	case KindCommit:
		if it.Commit != nil {
			return it.Commit.Commit.Message
		}
	}
	return ""
}

func (it Item) URL() string {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return it.PullRequest.HTMLURL
		}
	case KindIssue:
		if it.Issue != nil {
			return it.Issue.HTMLURL
		}
	case KindCommit:
		if it.Commit != nil {
			return it.Commit.HTMLURL
		}
	}
	return ""
}

// Author is the GitHub login, falling back to the git author name for commits
// not linked to an account.
func (it Item) Author() string {
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			return it.PullRequest.User.Login
		}
	case KindIssue:
		if it.Issue != nil {
			return it.Issue.User.Login
		}
	case KindCommit:
		if it.Commit != nil {
			if it.Commit.Author != nil && it.Commit.Author.Login != "" {
				return it.Commit.Author.Login
			}
			return it.Commit.Commit.Author.Name
		}
	}
	return ""
}

func (it Item) Labels() []string {
	var labels []github.Label
	switch it.Kind {
	case KindPullRequest:
		if it.PullRequest != nil {
			labels = it.PullRequest.Labels
		}
	case KindIssue:
		if it.Issue != nil {
			labels = it.Issue.Labels
		}
	}
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}

// ShortSHA is the 7-character abbreviation for commits.
func (it Item) ShortSHA() string {
	if it.Kind != KindCommit || it.Commit == nil {
		return ""
	}
	return ShortSHA(it.Commit.SHA)
}

// Matches reports whether the item matches a case-insensitive search query.
// An empty query matches everything.
func (it Item) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	switch it.Kind {
	case KindPullRequest, KindIssue:
		return strings.Contains(strings.ToLower(it.Title()), q) ||
			strings.Contains(strings.ToLower(it.Author()), q) ||
			strings.Contains(strconv.Itoa(it.Number()), q)
	case KindCommit:
		if it.Commit == nil {
			return false
		}
		return strings.Contains(strings.ToLower(it.Commit.Commit.Message), q) ||
			strings.Contains(strings.ToLower(it.Commit.Commit.Author.Name), q) ||
			strings.Contains(it.Commit.SHA, q)
	}
	return false
}

func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}

func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// CountIncluded returns how many items are marked for the release.
func CountIncluded(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Included {
			n++
		}
	}
	return n
}

// OfKind returns the items of one kind, preserving order.
func OfKind(items []Item, kind ItemKind) []Item {
	var out []Item
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}
