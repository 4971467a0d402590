// Package common defines shared sentinel errors and small helpers used across
// the diary layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Key derivation / password policy errors.
	ErrWeakInput     = errors.New("weak input")
	ErrWrongPassword = errors.New("wrong password")

	// Envelope errors.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// Storage errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrNotFound           = errors.New("not found")

	// ErrLocked is returned when a sealed record is read while no key is active.
	ErrLocked = errors.New("entry is sealed and no key is active")
	// ErrNotConfigured is returned by unlock when encryption was never enabled.
	ErrNotConfigured = errors.New("encryption is not configured")

	// ErrAlreadyConfigured is returned when key parameters are already saved.
	ErrAlreadyConfigured = errors.New("encryption is already configured")

	// Settings validation errors.
	ErrInvalidSettings = errors.New("invalid settings")
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrInvalidTemplate = errors.New("invalid template")

	ErrNotInitialized = errors.New("diary not initialized")
)
