package github

import "time"

type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Owner         User      `json:"owner"`
	Description   string    `json:"description"`
	Private       bool      `json:"private"`
	HTMLURL       string    `json:"html_url"`
	Stars         int       `json:"stargazers_count"`
	UpdatedAt     time.Time `json:"updated_at"`
	Language      string    `json:"language"`
	DefaultBranch string    `json:"default_branch"`
}

type BranchRef struct {
	Ref string `json:"ref"`
}

type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url"`
	User      User       `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	MergedAt  *time.Time `json:"merged_at"`
	Labels    []Label    `json:"labels"`
	Base      BranchRef  `json:"base"`
	Head      BranchRef  `json:"head"`
}

// IssuePullRequest is the backlink the issues listing carries for entries that
// are really pull requests.
type IssuePullRequest struct {
	URL string `json:"url"`
}

type Issue struct {
	Number      int               `json:"number"`
	Title       string            `json:"title"`
	Body        string            `json:"body,omitempty"`
	State       string            `json:"state"`
	HTMLURL     string            `json:"html_url"`
	User        User              `json:"user"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ClosedAt    *time.Time        `json:"closed_at"`
	Labels      []Label           `json:"labels"`
	Milestone   *Milestone        `json:"milestone,omitempty"`
	PullRequest *IssuePullRequest `json:"pull_request,omitempty"`
}

type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type CommitDetail struct {
	Author  CommitAuthor `json:"author"`
	Message string       `json:"message"`
}

type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
	Author  *User        `json:"author"`
}

type Milestone struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	OpenIssues   int        `json:"open_issues"`
	ClosedIssues int        `json:"closed_issues"`
	DueOn        *time.Time `json:"due_on"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CommitPointer struct {
	SHA string `json:"sha"`
}

type Tag struct {
	Name   string        `json:"name"`
	Commit CommitPointer `json:"commit"`
}

type Branch struct {
	Name      string        `json:"name"`
	Commit    CommitPointer `json:"commit"`
	Protected bool          `json:"protected"`
}

// GitObject is the target of a ref or an annotated tag. Type is "commit" or "tag".
type GitObject struct {
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type Ref struct {
	Ref    string    `json:"ref"`
	Object GitObject `json:"object"`
}

type AnnotatedTag struct {
	Tag     string    `json:"tag"`
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Object  GitObject `json:"object"`
}

type GitCommit struct {
	SHA     string       `json:"sha"`
	Author  CommitAuthor `json:"author"`
	Message string       `json:"message"`
}

type comparison struct {
	Status   string   `json:"status"`
	AheadBy  int      `json:"ahead_by"`
	BehindBy int      `json:"behind_by"`
	Commits  []Commit `json:"commits"`
}

type searchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}
