// Package cryptox implements password-based key derivation and the sealed
// envelope format used for diary entries at rest.
//
// # Key derivation
//
// DeriveKey turns a password into a 256-bit Key using PBKDF2-HMAC-SHA256
// with a fresh 128-bit salt on every call. A Deriver can be configured with a
// higher iteration count or with argon2id instead. The resulting Key lives in
// memory only: it refuses JSON encoding, prints as REDACTED and can be wiped.
// Its non-secret KeyParams (algorithm, salt, iterations, verifier) may be
// persisted so that the same password re-derives the same key later.
//
// # Envelopes
//
// Seal encodes a value as JSON and encrypts it with AES-256-GCM under a fresh
// 96-bit nonce. Open verifies the tag before decoding anything; any wrong key,
// flipped byte or truncation yields common.ErrAuthenticationFailure and never
// partial plaintext.
//
// Typical usage:
//
//	key, err := cryptox.DeriveKey(password)
//	env, err := cryptox.Seal(entry, key)
//	var out models.DiaryEntry
//	err = cryptox.Open(env, key, &out)
package cryptox
