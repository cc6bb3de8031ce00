// Package export renders a draft's included items as release notes.
package export

import (
	"time"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

// Release is the structured export document.
type Release struct {
	Version      string          `json:"version"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	Repository   Repository      `json:"repository"`
	Filter       *release.Filter `json:"filter"`
	PullRequests []Change        `json:"pullRequests"`
	Issues       []Change        `json:"issues"`
	Commits      []Commit        `json:"commits"`
	Summary      string          `json:"summary"`
}

type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Change is an exported pull request or issue.
type Change struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Author string   `json:"author"`
	Note   string   `json:"note"`
	Labels []string `json:"labels"`
}

type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Author  string `json:"author"`
	Note    string `json:"note"`
}

// ToExport projects the included items of items onto a Release. now is the
// generation time recorded in Date.
func ToExport(d draft.Draft, items []release.Item, repo github.Repository, now time.Time) Release {
	e := Release{
		Version:     d.Version,
		Title:       d.Title,
		Description: d.Description,
		Date:        now,
		Repository: Repository{
			Owner: repo.Owner.Login,
			Name:  repo.Name,
			URL:   repo.HTMLURL,
		},
		Filter:       d.Filter,
		PullRequests: []Change{},
		Issues:       []Change{},
		Commits:      []Commit{},
	}
	if e.Title == "" {
		e.Title = "Release " + d.Version
	}

	for _, it := range items {
		if !it.Included {
			continue
		}
		switch it.Kind {
		case release.KindPullRequest:
			e.PullRequests = append(e.PullRequests, toChange(it))
		case release.KindIssue:
			e.Issues = append(e.Issues, toChange(it))
		case release.KindCommit:
			e.Commits = append(e.Commits, Commit{
				SHA:     it.Key(),
				Message: it.Title(),
				URL:     it.URL(),
				Author:  it.Author(),
				Note:    it.Note,
			})
		}
	}
	e.Summary = Summary(e)
	return e
}

func toChange(it release.Item) Change {
	labels := it.Labels()
	if labels == nil {
		labels = []string{}
	}
	return Change{
		Number: it.Number(),
		Title:  it.Title(),
		URL:    it.URL(),
		Author: it.Author(),
		Note:   it.Note,
		Labels: labels,
	}
}
