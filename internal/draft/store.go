package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/marcin-skalski/relnotes/internal/release"
	"github.com/marcin-skalski/relnotes/internal/storage"
)

// Store reads and writes drafts through a storage.Backend. Read-modify-write
// cycles are not locked; concurrent writers race and the last one wins.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for id generation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(backend storage.Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With("component", "drafts"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every stored draft in stored order. Unreadable storage yields nil.
func (s *Store) List(ctx context.Context) []Draft {
	recs, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to load drafts", "err", err)
		return nil
	}
	return recs.drafts
}

func (s *Store) ListForRepo(ctx context.Context, owner, repo string) []Draft {
	var out []Draft
	for _, d := range s.List(ctx) {
		if d.Owner == owner && d.Repo == repo {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) Get(ctx context.Context, id string) (Draft, bool) {
	for _, d := range s.List(ctx) {
		if d.ID == id {
			return d, true
		}
	}
	return Draft{}, false
}

// Latest returns the most recently updated draft for a repository.
func (s *Store) Latest(ctx context.Context, owner, repo string) (Draft, bool) {
	drafts := s.ListForRepo(ctx, owner, repo)
	if len(drafts) == 0 {
		return Draft{}, false
	}
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts[0], true
}

// Create persists and returns an empty draft. The id is
// "owner/repo/<version|new>-<unix millis>".
func (s *Store) Create(ctx context.Context, owner, repo, version string) Draft {
	now := s.now().UTC()
	label := version
	if label == "" {
		label = "new"
	}

	var existing map[string]bool
	if recs, err := s.load(ctx); err == nil {
		existing = recs.ids()
	}
	millis := now.UnixMilli()
	id := fmt.Sprintf("%s/%s/%s-%s", owner, repo, label, strconv.FormatInt(millis, 10))
	for existing[id] {
		millis++
		id = fmt.Sprintf("%s/%s/%s-%s", owner, repo, label, strconv.FormatInt(millis, 10))
	}

	d := Draft{
		SchemaVersion: SchemaVersion,
		ID:            id,
		Owner:         owner,
		Repo:          repo,
		Version:       version,
		Items:         []release.Item{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.Save(ctx, d)
}

// Save upserts d by id, stamping UpdatedAt with the current time. The stamped
// draft is returned even when persistence fails.
func (s *Store) Save(ctx context.Context, d Draft) Draft {
	d.SchemaVersion = SchemaVersion
	d.UpdatedAt = s.now().UTC()
	if d.Items == nil {
		d.Items = []release.Item{}
	}

	recs, err := s.load(ctx)
	if err != nil {
		// An undecodable record must not block new work; it is replaced below.
		s.logger.Error("failed to load drafts before save, overwriting", "err", err)
		recs = records{}
	}

	replaced := false
	for i := range recs.drafts {
		if recs.drafts[i].ID == d.ID {
			recs.drafts[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		recs.drafts = append(recs.drafts, d)
	}

	if err := s.store(ctx, recs); err != nil {
		s.logger.Error("failed to save draft", "draft", d.ID, "err", err)
	}
	return d
}

// UpdateItem merges u into one item and re-persists the draft. It reports
// false, without writing, when the draft or item does not exist.
func (s *Store) UpdateItem(ctx context.Context, draftID, itemID string, u ItemUpdate) (Draft, bool) {
	d, ok := s.Get(ctx, draftID)
	if !ok {
		return Draft{}, false
	}
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			u.apply(&d.Items[i])
			return s.Save(ctx, d), true
		}
	}
	return d, false
}

// SetItems replaces the item list of a stored draft.
func (s *Store) SetItems(ctx context.Context, draftID string, items []release.Item) (Draft, bool) {
	d, ok := s.Get(ctx, draftID)
	if !ok {
		return Draft{}, false
	}
	d.Items = items
	return s.Save(ctx, d), true
}

func (s *Store) Delete(ctx context.Context, draftID string) {
	recs, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to load drafts before delete", "err", err)
		return
	}
	kept := recs.drafts[:0]
	for _, d := range recs.drafts {
		if d.ID != draftID {
			kept = append(kept, d)
		}
	}
	recs.drafts = kept
	if err := s.store(ctx, recs); err != nil {
		s.logger.Error("failed to delete draft", "draft", draftID, "err", err)
	}
}

// Clear removes every key under KeyPrefix and nothing else.
func (s *Store) Clear(ctx context.Context) {
	keys, err := s.backend.Keys(ctx, KeyPrefix)
	if err != nil {
		s.logger.Error("failed to list stored keys", "err", err)
		return
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			s.logger.Error("failed to remove stored key", "key", k, "err", err)
		}
	}
}

func (s *Store) load(ctx context.Context) (records, error) {
	data, err := s.backend.Get(ctx, draftsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return records{}, nil
	}
	if err != nil {
		return records{}, fmt.Errorf("read drafts: %w", err)
	}

	recs, migrated, err := decodeDrafts(data)
	if err != nil {
		return records{}, err
	}
	for _, n := range recs.newer {
		s.logger.Warn("keeping draft from a newer version unchanged", "draft", n.id, "schema_version", n.version)
	}
	if migrated {
		s.logger.Info("migrated stored drafts", "schema_version", SchemaVersion)
		if err := s.store(ctx, recs); err != nil {
			s.logger.Warn("failed to persist migrated drafts", "err", err)
		}
	}
	return recs, nil
}

func (s *Store) store(ctx context.Context, recs records) error {
	data, err := recs.encode()
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.backend.Put(ctx, draftsKey, data); err != nil {
		return fmt.Errorf("write drafts: %w", err)
	}
	return nil
}
