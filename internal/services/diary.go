package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/storage"
)

// Sentinel keys of the singleton records.
const (
	TemplatesKey = "all"
	SettingsKey  = "user"
)

// DiaryService is the application state facade used by the presentation
// layer.
//
// Contract:
//   - Initialize must succeed before any other operation; the others fail
//     with common.ErrNotInitialized until then.
//   - AddEntry/UpdateEntry seal the entry when a key is active and write it
//     as plaintext otherwise.
//   - GetEntry/LoadEntries distinguish common.ErrNotFound, common.ErrLocked
//     and common.ErrAuthenticationFailure.
//   - Saved key parameters are never replaced in place: EnableEncryption
//     fails with common.ErrAlreadyConfigured until DisableEncryption runs.
//   - Read accessors return copies and never expose key material.
type DiaryService interface {
	Initialize(ctx context.Context) error

	AddEntry(ctx context.Context, entry models.DiaryEntry) error
	UpdateEntry(ctx context.Context, entry models.DiaryEntry) error
	GetEntry(ctx context.Context, id string) (models.DiaryEntry, error)
	LoadEntries(ctx context.Context) error
	MigrateEntries(ctx context.Context) (int, error)
	Search(filter models.Filter) []models.DiaryEntry

	AddTemplate(ctx context.Context, tpl models.Template) error
	UpdateSettings(ctx context.Context, u SettingsUpdate) error

	EnableEncryption(ctx context.Context, password, confirm string) error
	Unlock(ctx context.Context, password string) error
	Lock()
	DisableEncryption(ctx context.Context) error

	Entries() []models.DiaryEntry
	Templates() []models.Template
	Settings() SettingsView

	Subscribe(ctx context.Context) <-chan Event
}

// SettingsView is the presentation-safe projection of the settings.
type SettingsView struct {
	Theme             models.Theme
	DefaultTemplateID string

	// EncryptionActive is true while a key is held in memory.
	EncryptionActive bool

	// EncryptionConfigured is true when key parameters are persisted, i.e.
	// Unlock can re-derive a key.
	EncryptionConfigured bool
}

// settingsRecord is the persisted settings value. Encryption holds only the
// non-secret derivation parameters.
type settingsRecord struct {
	models.UserSettings
	Encryption *cryptox.KeyParams `json:"encryption,omitempty"`
}

type diaryService struct {
	store   storage.TxStore
	deriver *cryptox.Deriver
	log     logging.Logger

	// opMu serializes mutations so the mirror observes them in issue order.
	opMu sync.Mutex

	mu          sync.RWMutex
	initialized bool
	entries     []models.DiaryEntry
	templates   []models.Template
	settings    models.UserSettings
	params      *cryptox.KeyParams
	key         *cryptox.Key

	// retired is the key cleared by DisableEncryption. It only opens sealed
	// records during MigrateEntries.
	retired *cryptox.Key

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewDiaryService constructs a DiaryService over store. deriver is used by
// EnableEncryption.
func NewDiaryService(store storage.TxStore, deriver *cryptox.Deriver, log logging.Logger) DiaryService {
	return &diaryService{
		store:    store,
		deriver:  deriver,
		log:      log.With("component", "diary"),
		settings: models.DefaultSettings(),
		subs:     make(map[int]chan Event),
	}
}

// Initialize loads templates and settings, seeding the built-in template on
// an empty store. Entries are not loaded; see LoadEntries.
func (s *diaryService) Initialize(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		templates = []models.Template{models.DefaultTemplate()}
		if err := s.saveTemplates(ctx, templates); err != nil {
			return err
		}
		s.log.Info(ctx, "seeded built-in template", "template", models.DefaultTemplateID)
	}

	rec, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.templates = templates
	s.settings = rec.UserSettings
	s.params = rec.Encryption
	s.initialized = true
	active := s.key != nil
	s.mu.Unlock()

	s.log.Info(ctx, "diary initialized",
		"templates", len(templates),
		"encryption_configured", rec.Encryption != nil,
		"encryption_active", active)
	s.publish(ctx, Event{Kind: EventInitialized})
	return nil
}

func (s *diaryService) loadTemplates(ctx context.Context) ([]models.Template, error) {
	raw, err := s.store.Get(ctx, storage.CollectionTemplates, TemplatesKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var templates []models.Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("%w: undecodable template list: %w", common.ErrInvalidTemplate, err)
	}
	return templates, nil
}

func (s *diaryService) saveTemplates(ctx context.Context, templates []models.Template) error {
	raw, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("encode templates: %w", err)
	}
	if err := s.store.Put(ctx, storage.CollectionTemplates, TemplatesKey, raw); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

func (s *diaryService) loadSettings(ctx context.Context) (settingsRecord, error) {
	rec := settingsRecord{UserSettings: models.DefaultSettings()}

	raw, err := s.store.Get(ctx, storage.CollectionSettings, SettingsKey)
	if errors.Is(err, common.ErrNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("load settings: %w", err)
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: undecodable settings record: %w", common.ErrInvalidSettings, err)
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("load settings: %w", err)
	}
	return rec, nil
}

func (s *diaryService) saveSettings(ctx context.Context, rec settingsRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.store.Put(ctx, storage.CollectionSettings, SettingsKey, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *diaryService) checkInitialized() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return common.ErrNotInitialized
	}
	return nil
}

// activeKey returns the key entries are currently sealed with, or nil.
func (s *diaryService) activeKey() *cryptox.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

func (s *diaryService) Entries() []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

func (s *diaryService) Templates() []models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Template, len(s.templates))
	for i, t := range s.templates {
		t.Sections = append([]models.TemplateSection(nil), t.Sections...)
		out[i] = t
	}
	return out
}

func (s *diaryService) Settings() SettingsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SettingsView{
		Theme:                s.settings.Theme,
		DefaultTemplateID:    s.settings.DefaultTemplateID,
		EncryptionActive:     s.key != nil,
		EncryptionConfigured: s.params != nil,
	}
}

func cloneEntries(in []models.DiaryEntry) []models.DiaryEntry {
	out := make([]models.DiaryEntry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
