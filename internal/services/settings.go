package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/models"
)

// SettingsUpdate lists the settings fields that can change. Nil fields are
// left as they are. EncryptionKey hands ownership of the key to the service
// on success and is refused with common.ErrAlreadyConfigured while key
// parameters are saved. ClearEncryptionKey drops the active key and its
// persisted parameters.
type SettingsUpdate struct {
	Theme              *models.Theme
	DefaultTemplateID  *string
	EncryptionKey      *cryptox.Key
	ClearEncryptionKey bool
}

// UpdateSettings validates each field of u, merges it into the current
// settings and persists the full record. Stored entries are not rewritten.
func (s *diaryService) UpdateSettings(ctx context.Context, u SettingsUpdate) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return err
	}

	s.mu.RLock()
	next := s.settings
	params := s.params
	key := s.key
	templates := s.templates
	s.mu.RUnlock()

	if u.Theme != nil {
		if !u.Theme.Valid() {
			return fmt.Errorf("%w: theme %q", common.ErrInvalidSettings, *u.Theme)
		}
		next.Theme = *u.Theme
	}

	if u.DefaultTemplateID != nil {
		if !hasTemplate(templates, *u.DefaultTemplateID) {
			return fmt.Errorf("%w: unknown template %q", common.ErrInvalidSettings, *u.DefaultTemplateID)
		}
		next.DefaultTemplateID = *u.DefaultTemplateID
	}

	switch {
	case u.EncryptionKey != nil && u.ClearEncryptionKey:
		return fmt.Errorf("%w: cannot set and clear the encryption key at once", common.ErrInvalidSettings)
	case u.EncryptionKey != nil:
		if !u.EncryptionKey.Usable() {
			return fmt.Errorf("%w: encryption key is not usable", common.ErrInvalidSettings)
		}
		if params != nil {
			return fmt.Errorf("%w: disable encryption before setting a new key", common.ErrAlreadyConfigured)
		}
		p := u.EncryptionKey.Params()
		params = &p
		key = u.EncryptionKey
	case u.ClearEncryptionKey:
		params = nil
		key = nil
	}

	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.saveSettings(ctx, settingsRecord{UserSettings: next, Encryption: params}); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.key
	s.settings = next
	s.params = params
	s.key = key
	var wipe *cryptox.Key
	if old != nil && old != key {
		wipe = old
		if u.ClearEncryptionKey {
			// Kept readable so MigrateEntries can still open sealed entries.
			wipe, s.retired = s.retired, old
		}
	}
	s.mu.Unlock()

	wipe.Wipe()

	s.log.Info(ctx, "settings updated",
		"theme", next.Theme,
		"default_template", next.DefaultTemplateID,
		"encryption_active", key != nil)
	s.publish(ctx, Event{Kind: EventSettingsChanged})
	return nil
}

// AddTemplate appends tpl and persists the whole template list.
func (s *diaryService) AddTemplate(ctx context.Context, tpl models.Template) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return err
	}
	if err := tpl.Validate(); err != nil {
		return err
	}

	s.mu.RLock()
	current := s.templates
	s.mu.RUnlock()

	if hasTemplate(current, tpl.ID) {
		return fmt.Errorf("%w: template %q already exists", common.ErrInvalidTemplate, tpl.ID)
	}

	next := make([]models.Template, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, tpl)

	if err := s.saveTemplates(ctx, next); err != nil {
		return err
	}

	s.mu.Lock()
	s.templates = next
	s.mu.Unlock()

	s.log.Info(ctx, "template added", "id", tpl.ID, "sections", len(tpl.Sections))
	s.publish(ctx, Event{Kind: EventTemplateAdded, ID: tpl.ID})
	return nil
}

// EnableEncryption checks the password policy, derives a fresh key and makes
// it active. A policy failure derives and persists nothing. When key
// parameters are already saved it fails with common.ErrAlreadyConfigured;
// Unlock restores the existing key instead.
func (s *diaryService) EnableEncryption(ctx context.Context, password, confirm string) error {
	if err := s.checkInitialized(); err != nil {
		return err
	}

	s.mu.RLock()
	configured := s.params != nil
	s.mu.RUnlock()
	if configured {
		return common.ErrAlreadyConfigured
	}

	if err := cryptox.ValidatePassword(password, confirm); err != nil {
		return err
	}

	key, err := s.deriver.Derive(password)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	if err := s.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: key}); err != nil {
		key.Wipe()
		return err
	}
	return nil
}

// Unlock re-derives the key from the persisted parameters.
func (s *diaryService) Unlock(ctx context.Context, password string) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkInitialized(); err != nil {
		return err
	}

	s.mu.RLock()
	params := s.params
	s.mu.RUnlock()
	if params == nil {
		return common.ErrNotConfigured
	}

	key, err := s.deriver.Rederive(password, *params)
	if err != nil {
		s.log.Warn(ctx, "unlock failed", "error", err)
		return fmt.Errorf("unlock: %w", err)
	}

	s.mu.Lock()
	old := s.key
	s.key = key
	s.mu.Unlock()
	old.Wipe()

	s.log.Info(ctx, "diary unlocked")
	s.publish(ctx, Event{Kind: EventSettingsChanged})
	return nil
}

// Lock drops and wipes the in-memory key. Persisted parameters stay, so
// Unlock can restore it.
func (s *diaryService) Lock() {
	ctx := context.Background()
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	old, retired := s.key, s.retired
	s.key, s.retired = nil, nil
	s.mu.Unlock()

	retired.Wipe()
	if old == nil {
		return
	}
	old.Wipe()

	s.log.Info(ctx, "diary locked")
	s.publish(ctx, Event{Kind: EventSettingsChanged})
}

// DisableEncryption stops sealing new writes and forgets the key parameters.
// Entries already sealed stay sealed until MigrateEntries runs; until then the
// cleared key is kept in memory for that purpose only.
func (s *diaryService) DisableEncryption(ctx context.Context) error {
	return s.UpdateSettings(ctx, SettingsUpdate{ClearEncryptionKey: true})
}

func hasTemplate(templates []models.Template, id string) bool {
	for _, t := range templates {
		if t.ID == id {
			return true
		}
	}
	return false
}
