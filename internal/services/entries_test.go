package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/storage"
)

func TestAddEntry_PlaintextThenSealedAfterKeyIsSet(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	entry := sampleEntry("e1", "2024-01-01")
	require.NoError(t, svc.AddEntry(ctx, entry))

	raw, err := st.Get(ctx, storage.CollectionEntries, "e1")
	require.NoError(t, err)
	var rec StoredEntry
	require.NoError(t, json.Unmarshal(raw, &rec))
	require.Equal(t, FormatPlaintext, rec.Format)
	require.NotNil(t, rec.Entry)
	assert.Empty(t, cmp.Diff(entry, *rec.Entry))

	require.NoError(t, svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: mustKey(t, testPassword)}))
	assert.Equal(t, FormatPlaintext, storedFormat(t, st, "e1"), "setting a key must not migrate entries")

	entry.Sections[0].Content = "went for a long run"
	require.NoError(t, svc.UpdateEntry(ctx, entry))

	raw, err = st.Get(ctx, storage.CollectionEntries, "e1")
	require.NoError(t, err)
	rec = StoredEntry{}
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, FormatSealed, rec.Format)
	assert.Nil(t, rec.Entry)
	require.NotNil(t, rec.Envelope)
	assert.NotContains(t, string(raw), "long run")
	assert.NotContains(t, string(raw), "Morning Thoughts")
}

func TestEntryStateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("sealed with key, read with same key", func(t *testing.T) {
		svc, _ := setupService(t)
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))

		entry := sampleEntry("e1", "2024-01-01")
		require.NoError(t, svc.AddEntry(ctx, entry))

		got, err := svc.GetEntry(ctx, "e1")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(entry, got))
	})

	t.Run("plaintext without key, read without key", func(t *testing.T) {
		svc, _ := setupService(t)

		entry := sampleEntry("e1", "2024-01-01")
		require.NoError(t, svc.AddEntry(ctx, entry))

		got, err := svc.GetEntry(ctx, "e1")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(entry, got))
	})

	t.Run("sealed with key, read without key fails", func(t *testing.T) {
		svc, st := setupService(t)
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("e1", "2024-01-01")))

		svc.Lock()
		assert.False(t, svc.Settings().EncryptionActive)
		assert.True(t, svc.Settings().EncryptionConfigured)

		_, err := svc.GetEntry(ctx, "e1")
		require.ErrorIs(t, err, common.ErrLocked)
		assert.NotErrorIs(t, err, common.ErrNotFound)
		assert.Equal(t, FormatSealed, storedFormat(t, st, "e1"), "reads never change the stored form")
	})

	t.Run("sealed with one key, read with another fails", func(t *testing.T) {
		svc, _ := setupService(t)
		require.NoError(t, svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: mustKey(t, testPassword)}))
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("e1", "2024-01-01")))

		require.NoError(t, svc.DisableEncryption(ctx))
		svc.Lock()
		require.NoError(t, svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: mustKey(t, "anotherlongpassword")}))

		_, err := svc.GetEntry(ctx, "e1")
		require.ErrorIs(t, err, common.ErrAuthenticationFailure)
		assert.NotErrorIs(t, err, common.ErrLocked)
	})

	t.Run("sealed to plaintext only by a write without key", func(t *testing.T) {
		svc, st := setupService(t)
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
		entry := sampleEntry("e1", "2024-01-01")
		require.NoError(t, svc.AddEntry(ctx, entry))

		require.NoError(t, svc.DisableEncryption(ctx))
		assert.Equal(t, FormatSealed, storedFormat(t, st, "e1"), "clearing the key must not migrate entries")

		require.NoError(t, svc.UpdateEntry(ctx, entry))
		assert.Equal(t, FormatPlaintext, storedFormat(t, st, "e1"))
	})

	t.Run("missing entry", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.GetEntry(ctx, "nope")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUnlock(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	require.ErrorIs(t, svc.Unlock(ctx, testPassword), common.ErrNotConfigured)

	require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
	entry := sampleEntry("e1", "2024-01-01")
	require.NoError(t, svc.AddEntry(ctx, entry))

	restarted := newService(t, st)
	require.NoError(t, restarted.Initialize(ctx))
	require.False(t, restarted.Settings().EncryptionActive)

	_, err := restarted.GetEntry(ctx, "e1")
	require.ErrorIs(t, err, common.ErrLocked)

	require.ErrorIs(t, restarted.Unlock(ctx, "wrongpassword1"), common.ErrWrongPassword)
	require.False(t, restarted.Settings().EncryptionActive)

	require.NoError(t, restarted.Unlock(ctx, testPassword))
	require.True(t, restarted.Settings().EncryptionActive)

	got, err := restarted.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(entry, got))
}

func TestEnableEncryption_WeakInputChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	require.ErrorIs(t, svc.EnableEncryption(ctx, "short", "short"), common.ErrWeakInput)
	require.ErrorIs(t, svc.EnableEncryption(ctx, testPassword, testPassword+"x"), common.ErrWeakInput)

	assert.False(t, svc.Settings().EncryptionActive)
	assert.False(t, svc.Settings().EncryptionConfigured)
	_, err := st.Get(ctx, storage.CollectionSettings, SettingsKey)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestEnableEncryption_RefusesWhenConfigured(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
	entry := sampleEntry("e1", "2024-01-01")
	require.NoError(t, svc.AddEntry(ctx, entry))
	params := *svc.params

	require.ErrorIs(t, svc.EnableEncryption(ctx, testPassword, testPassword), common.ErrAlreadyConfigured)

	restarted := newService(t, st)
	require.NoError(t, restarted.Initialize(ctx))
	require.ErrorIs(t, restarted.EnableEncryption(ctx, testPassword, testPassword), common.ErrAlreadyConfigured)
	require.ErrorIs(t, restarted.EnableEncryption(ctx, "anotherlongpassword", "anotherlongpassword"), common.ErrAlreadyConfigured)
	assert.False(t, restarted.Settings().EncryptionActive)

	raw, err := st.Get(ctx, storage.CollectionSettings, SettingsKey)
	require.NoError(t, err)
	var rec settingsRecord
	require.NoError(t, json.Unmarshal(raw, &rec))
	require.NotNil(t, rec.Encryption)
	assert.Empty(t, cmp.Diff(params, *rec.Encryption), "saved key parameters must survive")

	again := newService(t, st)
	require.NoError(t, again.Initialize(ctx))
	require.NoError(t, again.Unlock(ctx, testPassword))
	got, err := again.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(entry, got))
}

func TestUpdateSettings_RefusesKeyReplacement(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	first := mustKey(t, testPassword)
	require.NoError(t, svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: first}))
	require.NoError(t, svc.AddEntry(ctx, sampleEntry("e1", "2024-01-01")))

	second := mustKey(t, "anotherlongpassword")
	err := svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: second})
	require.ErrorIs(t, err, common.ErrAlreadyConfigured)
	assert.Empty(t, cmp.Diff(first.Params(), *svc.params))
	assert.True(t, first.Usable(), "the active key stays in place")

	svc.Lock()
	err = svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: second})
	require.ErrorIs(t, err, common.ErrAlreadyConfigured, "locked is still configured")

	require.NoError(t, svc.DisableEncryption(ctx))
	require.NoError(t, svc.UpdateSettings(ctx, SettingsUpdate{EncryptionKey: second}))
	assert.True(t, svc.Settings().EncryptionActive)
}

func TestAddEntry_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	require.ErrorIs(t, svc.AddEntry(ctx, sampleEntry("", "2024-01-01")), common.ErrInvalidEntry)
	require.ErrorIs(t, svc.AddEntry(ctx, sampleEntry("e1", "01/02/2024")), common.ErrInvalidEntry)
	assert.Empty(t, svc.Entries())
}

func TestAddEntry_StorageFailureLeavesMirror(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{TxStore: setupStore(t)}
	svc := newService(t, fs)
	require.NoError(t, svc.Initialize(ctx))

	fs.setFailPut(true)
	err := svc.AddEntry(ctx, sampleEntry("e1", "2024-01-01"))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Empty(t, svc.Entries())
}

func TestAddEntry_CompletesAfterCancel(t *testing.T) {
	svc, _ := setupService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.AddEntry(ctx, sampleEntry("e1", "2024-01-01")))
	_, err := svc.GetEntry(context.Background(), "e1")
	require.NoError(t, err)
}

func TestMirror_OrderAndUpsert(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	require.NoError(t, svc.AddEntry(ctx, sampleEntry("a", "2024-01-01")))
	require.NoError(t, svc.AddEntry(ctx, sampleEntry("b", "2024-03-01")))
	require.NoError(t, svc.AddEntry(ctx, sampleEntry("c", "2024-02-01")))

	updated := sampleEntry("a", "2024-01-01")
	updated.Sections[0].Content = "rewritten"
	require.NoError(t, svc.UpdateEntry(ctx, updated))

	entries := svc.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"b", "c", "a"}, ids(entries))
	assert.Equal(t, "rewritten", entries[2].Sections[0].Content)

	entries[0].Sections[0].Content = "mutated by caller"
	assert.Equal(t, "went for a run", svc.Entries()[0].Sections[0].Content)
}

func TestLoadEntries(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	require.NoError(t, svc.AddEntry(ctx, sampleEntry("a", "2024-01-01")))
	require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
	require.NoError(t, svc.AddEntry(ctx, sampleEntry("b", "2024-03-01")))
	require.NoError(t, svc.AddEntry(ctx, sampleEntry("c", "2024-02-01")))

	restarted := newService(t, st)
	require.NoError(t, restarted.Initialize(ctx))
	assert.Empty(t, restarted.Entries(), "initialize loads no entries")

	require.ErrorIs(t, restarted.LoadEntries(ctx), common.ErrLocked)
	assert.Empty(t, restarted.Entries())

	require.NoError(t, restarted.Unlock(ctx, testPassword))
	require.NoError(t, restarted.LoadEntries(ctx))
	assert.Equal(t, []string{"b", "c", "a"}, ids(restarted.Entries()))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	plain := sampleEntry("a", "2024-01-01")
	plain.Flags = models.Flags{}
	major := sampleEntry("b", "2024-01-02")
	major.Flags = models.Flags{IsMajorEvent: true}
	major.Sections[0].Content = "moved to Lisbon"

	require.NoError(t, svc.AddEntry(ctx, plain))
	require.NoError(t, svc.AddEntry(ctx, major))

	assert.Equal(t, []string{"b"}, ids(svc.Search(models.Filter{Query: "lisbon"})))
	assert.Equal(t, []string{"b"}, ids(svc.Search(models.Filter{MajorEvent: true})))
	assert.Equal(t, []string{"b", "a"}, ids(svc.Search(models.Filter{Query: "highlights"})))
	assert.Empty(t, svc.Search(models.Filter{Important: true}))
}

func TestMigrateEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("seal then unseal", func(t *testing.T) {
		svc, st := setupService(t)
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("a", "2024-01-01")))
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("b", "2024-01-02")))

		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
		n, err := svc.MigrateEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, FormatSealed, storedFormat(t, st, "a"))
		assert.Equal(t, FormatSealed, storedFormat(t, st, "b"))

		require.NoError(t, svc.DisableEncryption(ctx))
		n, err = svc.MigrateEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, FormatPlaintext, storedFormat(t, st, "a"))
		assert.Equal(t, FormatPlaintext, storedFormat(t, st, "b"))

		got, err := svc.GetEntry(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(sampleEntry("a", "2024-01-01"), got))
	})

	t.Run("unreadable record rolls back", func(t *testing.T) {
		svc, st := setupService(t)
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("a", "2024-01-01")))
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))

		foreign, err := encodeEntry(sampleEntry("b", "2024-01-02"), mustKey(t, "anotherlongpassword"))
		require.NoError(t, err)
		require.NoError(t, st.Put(ctx, storage.CollectionEntries, "b", foreign))

		_, err = svc.MigrateEntries(ctx)
		require.ErrorIs(t, err, common.ErrAuthenticationFailure)
		assert.Equal(t, FormatPlaintext, storedFormat(t, st, "a"))
		assert.Equal(t, FormatSealed, storedFormat(t, st, "b"))
	})

	t.Run("reseal after the password changed", func(t *testing.T) {
		svc, st := setupService(t)
		entry := sampleEntry("e1", "2024-01-01")
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
		require.NoError(t, svc.AddEntry(ctx, entry))
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("e2", "2024-01-02")))

		require.NoError(t, svc.DisableEncryption(ctx))
		require.NoError(t, svc.EnableEncryption(ctx, "anotherlongpassword", "anotherlongpassword"))

		_, err := svc.GetEntry(ctx, "e1")
		require.ErrorIs(t, err, common.ErrAuthenticationFailure, "reads use the active key only")

		n, err := svc.MigrateEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, FormatSealed, storedFormat(t, st, "e1"))
		assert.Nil(t, svc.retired)

		restarted := newService(t, st)
		require.NoError(t, restarted.Initialize(ctx))
		require.ErrorIs(t, restarted.Unlock(ctx, testPassword), common.ErrWrongPassword)
		require.NoError(t, restarted.Unlock(ctx, "anotherlongpassword"))
		got, err := restarted.GetEntry(ctx, "e1")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(entry, got))
	})

	t.Run("locked sealed records", func(t *testing.T) {
		svc, _ := setupService(t)
		require.NoError(t, svc.EnableEncryption(ctx, testPassword, testPassword))
		require.NoError(t, svc.AddEntry(ctx, sampleEntry("a", "2024-01-01")))
		svc.Lock()

		_, err := svc.MigrateEntries(ctx)
		require.ErrorIs(t, err, common.ErrLocked)
	})
}

func ids(entries []models.DiaryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
