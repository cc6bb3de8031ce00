package release

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFilter = errors.New("invalid filter")

type FilterKind string

const (
	FilterMilestone FilterKind = "milestone"
	FilterTag       FilterKind = "tag"
	FilterDate      FilterKind = "date"
	FilterBranch    FilterKind = "branch"
)

// Filter bounds the set of changes that belong in a release. Exactly one of the
// variant fields is set, matching Kind.
type Filter struct {
	Kind      FilterKind       `json:"type"`
	Milestone *MilestoneFilter `json:"milestone,omitempty"`
	Tag       *TagRange        `json:"tag,omitempty"`
	Date      *DateRange       `json:"date,omitempty"`
	Branch    *BranchRange     `json:"branch,omitempty"`
}

type MilestoneFilter struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title,omitempty"`
	DueOn     *time.Time `json:"dueOn,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// TagRange with an empty To means "up to the latest commit".
type TagRange struct {
	From string `json:"fromTag"`
	To   string `json:"toTag,omitempty"`
}

// DateRange with a nil To means "up to now".
type DateRange struct {
	From time.Time  `json:"fromDate"`
	To   *time.Time `json:"toDate,omitempty"`
}

type BranchRange struct {
	Base    string `json:"baseBranch"`
	Compare string `json:"compareBranch"`
}

func MilestoneOf(m MilestoneFilter) Filter {
	return Filter{Kind: FilterMilestone, Milestone: &m}
}

func TagsOf(from, to string) Filter {
	return Filter{Kind: FilterTag, Tag: &TagRange{From: from, To: to}}
}

func DatesOf(from time.Time, to *time.Time) Filter {
	return Filter{Kind: FilterDate, Date: &DateRange{From: from, To: to}}
}

func BranchesOf(base, compare string) Filter {
	return Filter{Kind: FilterBranch, Branch: &BranchRange{Base: base, Compare: compare}}
}

// Validate reports whether the filter is usable for fetching.
func (f Filter) Validate() error {
	set := 0
	for _, present := range []bool{f.Milestone != nil, f.Tag != nil, f.Date != nil, f.Branch != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one of milestone, tag, date or branch must be set", ErrInvalidFilter)
	}

	switch f.Kind {
	case FilterMilestone:
		if f.Milestone == nil || f.Milestone.ID == 0 {
			return fmt.Errorf("%w: milestone is required", ErrInvalidFilter)
		}
	case FilterTag:
		if f.Tag == nil || strings.TrimSpace(f.Tag.From) == "" {
			return fmt.Errorf("%w: from tag is required", ErrInvalidFilter)
		}
	case FilterDate:
		if f.Date == nil || f.Date.From.IsZero() {
			return fmt.Errorf("%w: from date is required", ErrInvalidFilter)
		}
	case FilterBranch:
		if f.Branch == nil || strings.TrimSpace(f.Branch.Base) == "" || strings.TrimSpace(f.Branch.Compare) == "" {
			return fmt.Errorf("%w: base and compare branches are required", ErrInvalidFilter)
		}
	default:
		return fmt.Errorf("%w: unknown filter type %q", ErrInvalidFilter, f.Kind)
	}
	return nil
}

// String describes the filter for logs and listings.
func (f Filter) String() string {
	switch f.Kind {
	case FilterMilestone:
		if f.Milestone != nil {
			if f.Milestone.Title != "" {
				return "milestone " + f.Milestone.Title
			}
			return fmt.Sprintf("milestone #%d", f.Milestone.Number)
		}
	case FilterTag:
		if f.Tag != nil {
			to := f.Tag.To
			if to == "" {
				to = "latest"
			}
			return "tags " + f.Tag.From + ".." + to
		}
	case FilterDate:
		if f.Date != nil {
			to := "now"
			if f.Date.To != nil {
				to = f.Date.To.Format(time.DateOnly)
			}
			return "dates " + f.Date.From.Format(time.DateOnly) + ".." + to
		}
	case FilterBranch:
		if f.Branch != nil {
			return "branches " + f.Branch.Base + "..." + f.Branch.Compare
		}
	}
	return string(f.Kind)
}
