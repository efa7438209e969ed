// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package models

import "errors"

// Error classes. Every error returned by a primary operation wraps exactly
// one of these.
var (
	// ErrAuthentication indicates a missing, malformed, expired or forged token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrForbidden indicates an authenticated identity acting on a resource it
	// does not own and is not allowed to see.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates malformed input, rejected before any persistence.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a missing referenced entity. Resources the caller
	// is not allowed to see are reported as not found as well.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a request that collides with existing state,
	// such as following a user twice.
	ErrConflict = errors.New("conflict")

	// ErrStore indicates a persistence failure or timeout.
	ErrStore = errors.New("store failure")
)

// IsDomainError reports whether err already carries one of the error classes
// above, so it can be passed through a layer without rewrapping.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStore)
}

// ClientMessage returns the text shown to API and socket clients for err.
// Store failures are reported generically so internal details stay in the
// logs.
func ClientMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStore), !IsDomainError(err):
		return "internal error"
	default:
		return err.Error()
	}
}
