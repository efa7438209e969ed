// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"errors"
	"net/http"

	"github.com/samber/lo"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
)

// FieldError is one entry of a validation error's details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// statusFor maps a domain error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, models.ErrStore):
		return http.StatusInternalServerError, ErrCodeStoreError
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// writeDomainError renders err as an error envelope. Internal failures are
// logged with the request context and reach the client as a generic message.
// It doubles as the auth middleware's error writer.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	var details any
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) && len(verr.Errors()) > 0 {
		details = lo.Map(verr.Errors(), func(e validation.ValidationError, _ int) FieldError {
			return FieldError{Field: e.Field(), Message: e.Error()}
		})
	}

	NewResponseWriter(w, r).ErrorWithDetails(status, code, models.ClientMessage(err), details)
}
