package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/storage"
)

func (s *diaryService) AddEntry(ctx context.Context, entry models.DiaryEntry) error {
	return s.writeEntry(ctx, entry, EventEntryAdded)
}

func (s *diaryService) UpdateEntry(ctx context.Context, entry models.DiaryEntry) error {
	return s.writeEntry(ctx, entry, EventEntryUpdated)
}

// writeEntry persists entry under its id, sealed if a key is active, and then
// upserts it into the mirror.
func (s *diaryService) writeEntry(ctx context.Context, entry models.DiaryEntry, kind EventKind) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	key := s.activeKey()
	raw, err := encodeEntry(entry, key)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, storage.CollectionEntries, entry.ID, raw); err != nil {
		return fmt.Errorf("save entry %s: %w", entry.ID, err)
	}

	s.mu.Lock()
	s.entries = upsertEntry(s.entries, entry.Clone())
	s.mu.Unlock()

	s.log.Debug(ctx, "entry saved", "id", entry.ID, "sealed", key != nil)
	s.publish(ctx, Event{Kind: kind, ID: entry.ID})
	return nil
}

// GetEntry reads one entry from the store through its format tag.
func (s *diaryService) GetEntry(ctx context.Context, id string) (models.DiaryEntry, error) {
	if err := s.checkInitialized(); err != nil {
		return models.DiaryEntry{}, err
	}

	raw, err := s.store.Get(ctx, storage.CollectionEntries, id)
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("get entry %s: %w", id, err)
	}

	e, err := decodeEntry(raw, s.activeKey())
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("read entry %s: %w", id, err)
	}
	return e, nil
}

// LoadEntries replaces the mirror with every stored entry. It fails on the
// first record that cannot be read and leaves the mirror unchanged.
func (s *diaryService) LoadEntries(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return err
	}

	records, err := s.store.List(ctx, storage.CollectionEntries)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	entries, err := decodeAll(records, s.activeKey())
	if err != nil {
		return err
	}
	sortEntries(entries)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.log.Info(ctx, "entries loaded", "count", len(entries))
	s.publish(ctx, Event{Kind: EventEntriesLoaded})
	return nil
}

// MigrateEntries rewrites every stored entry under the current encryption
// state: sealed with the active key, or plaintext when none is active. Sealed
// records are opened with the active key, falling back to the key most
// recently cleared by DisableEncryption. It is all or nothing; a record that cannot be
// read aborts the migration.
func (s *diaryService) MigrateEntries(ctx context.Context) (int, error) {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	key, retired := s.key, s.retired
	s.mu.RUnlock()

	var entries []models.DiaryEntry

	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Store) error {
		records, err := tx.List(ctx, storage.CollectionEntries)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}

		entries, err = decodeAll(records, key, retired)
		if err != nil {
			return err
		}

		for _, e := range entries {
			raw, err := encodeEntry(e, key)
			if err != nil {
				return err
			}
			if err := tx.Put(ctx, storage.CollectionEntries, e.ID, raw); err != nil {
				return fmt.Errorf("rewrite entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "entry migration failed", "error", err)
		return 0, err
	}

	sortEntries(entries)
	s.mu.Lock()
	s.entries = entries
	s.retired = nil
	s.mu.Unlock()
	retired.Wipe()

	s.log.Info(ctx, "entries migrated", "count", len(entries), "sealed", key != nil)
	s.publish(ctx, Event{Kind: EventEntriesMigrated})
	return len(entries), nil
}

// Search filters the in-memory mirror.
func (s *diaryService) Search(filter models.Filter) []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(filter.Apply(s.entries))
}

func decodeAll(records []storage.Record, keys ...*cryptox.Key) ([]models.DiaryEntry, error) {
	entries := make([]models.DiaryEntry, 0, len(records))
	for _, r := range records {
		e, err := decodeEntry(r.Value, keys...)
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", r.Key, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func upsertEntry(entries []models.DiaryEntry, e models.DiaryEntry) []models.DiaryEntry {
	out := make([]models.DiaryEntry, 0, len(entries)+1)
	replaced := false
	for _, cur := range entries {
		if cur.ID == e.ID {
			out = append(out, e)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// sortEntries orders newest date first, then most recently updated.
func sortEntries(entries []models.DiaryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
}
