package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/storage"
)

const testPassword = "longenoughpassword"

func setupStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(ctx, filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.InitializeSchema(ctx))
	return st
}

func testDeriver(t *testing.T) *cryptox.Deriver {
	t.Helper()
	d, err := cryptox.NewDeriver(cryptox.KDFPBKDF2, cryptox.MinIterations)
	require.NoError(t, err)
	return d
}

// newService builds an uninitialized service over st.
func newService(t *testing.T, st storage.TxStore) *diaryService {
	t.Helper()
	return NewDiaryService(st, testDeriver(t), logging.Nop()).(*diaryService)
}

// setupService returns an initialized service over a fresh store.
func setupService(t *testing.T) (*diaryService, *storage.SQLiteStore) {
	t.Helper()
	st := setupStore(t)
	svc := newService(t, st)
	require.NoError(t, svc.Initialize(context.Background()))
	return svc, st
}

func mustKey(t *testing.T, password string) *cryptox.Key {
	t.Helper()
	k, err := cryptox.DeriveKey(password)
	require.NoError(t, err)
	return k
}

func sampleEntry(id, date string) models.DiaryEntry {
	ts := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	return models.DiaryEntry{
		ID:         id,
		Date:       date,
		TemplateID: models.DefaultTemplateID,
		Sections: []models.Section{
			{ID: id + "-s1", Heading: "Morning Thoughts", Content: "went for a run", Flags: models.Flags{NeedsReview: true}},
			{ID: id + "-s2", Heading: "Highlights", Content: "finished the report"},
		},
		Flags:     models.Flags{IsImportant: true},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// recordFormat reports the representation of a raw stored entry without
// decoding its payload.
func recordFormat(raw []byte) (Format, error) {
	var head struct {
		Format Format `json:"format"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("%w: undecodable record: %w", common.ErrInvalidEntry, err)
	}
	return head.Format, nil
}

func storedFormat(t *testing.T, st storage.Store, id string) Format {
	t.Helper()
	raw, err := st.Get(context.Background(), storage.CollectionEntries, id)
	require.NoError(t, err)
	f, err := recordFormat(raw)
	require.NoError(t, err)
	return f
}

// failingStore fails writes on demand.
type failingStore struct {
	storage.TxStore
	mu      sync.Mutex
	failPut bool
}

func (f *failingStore) setFailPut(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = v
}

func (f *failingStore) Put(ctx context.Context, c storage.Collection, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return common.ErrStorageUnavailable
	}
	return f.TxStore.Put(ctx, c, key, value)
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(w *syncBuffer) logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}
