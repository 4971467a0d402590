package services

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/models"
)

// Format is the on-disk representation of a stored entry.
type Format string

const (
	FormatPlaintext Format = "plaintext"
	FormatSealed    Format = "sealed"
)

// StoredEntry is the value written to the entries collection.
type StoredEntry struct {
	Format   Format             `json:"format"`
	Entry    *models.DiaryEntry `json:"entry,omitempty"`
	Envelope *cryptox.Envelope  `json:"envelope,omitempty"`
}

// encodeEntry seals e when key is non-nil and stores it as plaintext otherwise.
func encodeEntry(e models.DiaryEntry, key *cryptox.Key) ([]byte, error) {
	rec := StoredEntry{Format: FormatPlaintext, Entry: &e}
	if key != nil {
		env, err := cryptox.Seal(e, key)
		if err != nil {
			return nil, fmt.Errorf("seal entry %s: %w", e.ID, err)
		}
		rec = StoredEntry{Format: FormatSealed, Envelope: env}
	}
	return json.Marshal(rec)
}

// decodeEntry follows the record's own format tag, not the current
// encryption state. Sealed records are opened with the first of keys that
// authenticates them; nil keys are skipped.
func decodeEntry(raw []byte, keys ...*cryptox.Key) (models.DiaryEntry, error) {
	var rec StoredEntry
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.DiaryEntry{}, fmt.Errorf("%w: undecodable record: %w", common.ErrInvalidEntry, err)
	}

	switch rec.Format {
	case FormatPlaintext:
		if rec.Entry == nil {
			return models.DiaryEntry{}, fmt.Errorf("%w: plaintext record without entry", common.ErrInvalidEntry)
		}
		return *rec.Entry, nil
	case FormatSealed:
		err := common.ErrLocked
		for _, key := range keys {
			if key == nil {
				continue
			}
			var e models.DiaryEntry
			if err = cryptox.Open(rec.Envelope, key, &e); err == nil {
				return e, nil
			}
		}
		return models.DiaryEntry{}, err
	default:
		return models.DiaryEntry{}, fmt.Errorf("%w: unknown record format %q", common.ErrInvalidEntry, rec.Format)
	}
}
