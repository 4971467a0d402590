// Package storage is the local record store: a SQLite database holding the
// three collections of the diary (entries, templates, settings) as key/value
// tables.
//
// # Overview
//
// Store is the encryption-agnostic contract: Put upserts raw bytes under a
// key (last writer wins), Get returns them or common.ErrNotFound, and List
// returns a whole collection in key order. Which bytes are plaintext and
// which are sealed envelopes is decided by the caller.
//
// SQLiteStore implements Store over modernc.org/sqlite. InitializeSchema
// applies the embedded goose migrations; it is idempotent and never drops
// existing data. WithTx runs several operations against one transaction.
//
// # Errors
//
// Driver failures are wrapped with common.ErrStorageUnavailable and returned
// as-is: there is no retry and no fallback medium. Unknown collection names
// fail with common.ErrUnknownCollection.
//
// Typical usage:
//
//	st, _ := storage.Open(ctx, "diary.db")
//	_ = st.InitializeSchema(ctx)
//	_ = st.Put(ctx, storage.CollectionEntries, "e1", data)
//	data, _ = st.Get(ctx, storage.CollectionEntries, "e1")
package storage
