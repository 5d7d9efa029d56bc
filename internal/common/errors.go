// Package common defines shared constants and sentinel errors used across
// the journal core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Store lifecycle errors.
	ErrInvalidPassword = errors.New("invalid password")
	ErrStoreClosed     = errors.New("store closed")

	// Remote / sync errors.
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrRemoteUnreadable = errors.New("remote data unreadable")
	ErrForeignRemote    = errors.New("remote blob encrypted under a different key")

	// LLM proxy errors.
	ErrRateLimited = errors.New("rate limited")

	// Import / validation errors.
	ErrValidation = errors.New("validation error")
)
