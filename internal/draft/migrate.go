package draft

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

// legacyDraft is the unversioned record layout, where each item kept its
// provider payload under "data" next to the "type" tag.
type legacyDraft struct {
	Draft
	Filter *legacyFilter `json:"filter"`
	Items  []legacyItem  `json:"items"`
}

// legacyFilter is the flat filter layout: every variant's fields side by side
// and the milestone as the provider returned it.
type legacyFilter struct {
	Type          release.FilterKind `json:"type"`
	Milestone     *github.Milestone  `json:"milestone"`
	FromTag       string             `json:"fromTag"`
	ToTag         string             `json:"toTag"`
	FromDate      *time.Time         `json:"fromDate"`
	ToDate        *time.Time         `json:"toDate"`
	BaseBranch    string             `json:"baseBranch"`
	CompareBranch string             `json:"compareBranch"`
}

// filter maps the flat layout onto a Filter. Incomplete filters map to nil so
// the draft asks for a new range instead of failing validation later.
func (f *legacyFilter) filter() *release.Filter {
	if f == nil {
		return nil
	}
	var out release.Filter
	switch f.Type {
	case release.FilterMilestone:
		if f.Milestone == nil || f.Milestone.ID == 0 {
			return nil
		}
		m := release.MilestoneFilter{
			ID:     f.Milestone.ID,
			Number: f.Milestone.Number,
			Title:  f.Milestone.Title,
			DueOn:  f.Milestone.DueOn,
		}
		if !f.Milestone.CreatedAt.IsZero() {
			created := f.Milestone.CreatedAt
			m.CreatedAt = &created
		}
		out = release.MilestoneOf(m)
	case release.FilterTag:
		out = release.TagsOf(f.FromTag, f.ToTag)
	case release.FilterDate:
		if f.FromDate == nil {
			return nil
		}
		out = release.DatesOf(*f.FromDate, f.ToDate)
	case release.FilterBranch:
		out = release.BranchesOf(f.BaseBranch, f.CompareBranch)
	default:
		return nil
	}
	if out.Validate() != nil {
		return nil
	}
	return &out
}

type legacyItem struct {
	ID       string           `json:"id"`
	Kind     release.ItemKind `json:"type"`
	Included bool             `json:"included"`
	Note     string           `json:"note"`
	Data     json.RawMessage  `json:"data"`

	// Set when a record was already written with typed payloads but no version.
	PullRequest *github.PullRequest `json:"pullRequest"`
	Issue       *github.Issue       `json:"issue"`
	Commit      *github.Commit      `json:"commit"`
}

type versionProbe struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
}

// records is the decoded drafts array. Records written with a newer schema
// cannot be read here; they are carried verbatim so saving does not drop them.
type records struct {
	drafts []Draft
	newer  []newerRecord
}

type newerRecord struct {
	id      string
	version int
	raw     json.RawMessage
}

func (r records) ids() map[string]bool {
	ids := make(map[string]bool, len(r.drafts)+len(r.newer))
	for _, d := range r.drafts {
		ids[d.ID] = true
	}
	for _, n := range r.newer {
		ids[n.id] = true
	}
	return ids
}

func (r records) encode() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(r.drafts)+len(r.newer))
	for _, d := range r.drafts {
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode draft %s: %w", d.ID, err)
		}
		out = append(out, data)
	}
	for _, n := range r.newer {
		out = append(out, n.raw)
	}
	return json.Marshal(out)
}

// decodeDrafts parses the stored array, upgrading older records. The second
// return reports whether any record was migrated.
func decodeDrafts(data []byte) (records, bool, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return records{}, false, fmt.Errorf("decode drafts: %w", err)
	}

	recs := records{drafts: make([]Draft, 0, len(raw))}
	migrated := false
	for i, rec := range raw {
		var probe versionProbe
		if err := json.Unmarshal(rec, &probe); err != nil {
			return records{}, false, fmt.Errorf("decode draft %d: %w", i, err)
		}

		switch {
		case probe.SchemaVersion == SchemaVersion:
			var d Draft
			if err := json.Unmarshal(rec, &d); err != nil {
				return records{}, false, fmt.Errorf("decode draft %d: %w", i, err)
			}
			recs.drafts = append(recs.drafts, d)
		case probe.SchemaVersion == 0:
			d, err := migrateV0(rec)
			if err != nil {
				return records{}, false, fmt.Errorf("migrate draft %d: %w", i, err)
			}
			recs.drafts = append(recs.drafts, d)
			migrated = true
		case probe.SchemaVersion > SchemaVersion:
			recs.newer = append(recs.newer, newerRecord{id: probe.ID, version: probe.SchemaVersion, raw: rec})
		default:
			return records{}, false, fmt.Errorf("draft %d has invalid schema version %d", i, probe.SchemaVersion)
		}
	}
	return recs, migrated, nil
}

func migrateV0(rec json.RawMessage) (Draft, error) {
	var legacy legacyDraft
	if err := json.Unmarshal(rec, &legacy); err != nil {
		return Draft{}, err
	}

	d := legacy.Draft
	d.SchemaVersion = SchemaVersion
	d.Filter = legacy.Filter.filter()
	d.Items = make([]release.Item, 0, len(legacy.Items))
	for _, li := range legacy.Items {
		it := release.Item{
			ID:          li.ID,
			Kind:        li.Kind,
			Included:    li.Included,
			Note:        li.Note,
			PullRequest: li.PullRequest,
			Issue:       li.Issue,
			Commit:      li.Commit,
		}
		if len(li.Data) > 0 && string(li.Data) != "null" {
			var err error
			switch li.Kind {
			case release.KindPullRequest:
				err = json.Unmarshal(li.Data, &it.PullRequest)
			case release.KindIssue:
				err = json.Unmarshal(li.Data, &it.Issue)
			case release.KindCommit:
				err = json.Unmarshal(li.Data, &it.Commit)
			default:
				err = fmt.Errorf("unknown item type %q", li.Kind)
			}
			if err != nil {
				return Draft{}, fmt.Errorf("item %s: %w", li.ID, err)
			}
		}
		d.Items = append(d.Items, it)
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	return d, nil
}
