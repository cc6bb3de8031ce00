// Package draft persists in-progress release drafts.
//
// All drafts live as one JSON array under a single key in a shared
// storage.Backend. Persistence failures are logged and swallowed so callers
// keep working from their in-memory copy.
package draft

import (
	"time"

	"github.com/marcin-skalski/relnotes/internal/release"
)

const (
	// KeyPrefix namespaces every record this package writes.
	KeyPrefix = "release-notes:"
	draftsKey = KeyPrefix + "drafts"

	// SchemaVersion is stamped on every record written.
	SchemaVersion = 1
)

// Draft is the editable working state of one release for one repository.
type Draft struct {
	SchemaVersion int             `json:"schemaVersion"`
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	Repo          string          `json:"repo"`
	Version       string          `json:"version"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Filter        *release.Filter `json:"filter"`
	Items         []release.Item  `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FullName returns "owner/repo".
func (d Draft) FullName() string {
	return d.Owner + "/" + d.Repo
}

// Item returns the item with id and whether it exists.
func (d Draft) Item(id string) (release.Item, bool) {
	for _, it := range d.Items {
		if it.ID == id {
			return it, true
		}
	}
	return release.Item{}, false
}

// ItemUpdate is a partial change to one item. Nil fields are left alone.
type ItemUpdate struct {
	Note     *string
	Included *bool
}

func (u ItemUpdate) apply(it *release.Item) {
	if u.Note != nil {
		it.Note = *u.Note
	}
	if u.Included != nil {
		it.Included = *u.Included
	}
}
