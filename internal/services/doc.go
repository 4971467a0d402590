// Package services holds the application state of the diary: an in-memory
// mirror of entries, templates and settings kept consistent with the record
// store, and the encrypt-on-write / decrypt-on-read routing for entries.
//
// Every stored entry is tagged with its representation, plaintext or sealed,
// so reads pick the decode path from the record itself. A sealed record read
// without an active key fails with common.ErrLocked; read with a different
// key it fails with common.ErrAuthenticationFailure. Neither is ever reported
// as common.ErrNotFound.
//
// Turning encryption on or off never rewrites stored entries. MigrateEntries
// does that explicitly, inside one transaction.
//
// Mutations are not cancellable: once issued they run to completion even if
// the caller's context is cancelled. The mirror is updated only after the
// store write succeeds, and subscribers are notified afterwards.
package services
