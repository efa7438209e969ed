// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Verifier turns a raw token into an identity.
type Verifier interface {
	Verify(raw string) (Identity, error)
}

// UserProvisioner creates or refreshes the user record of a verified caller.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, u models.User) error
}

// ErrorWriter renders an error response. The API layer supplies one that
// speaks its response envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates HTTP requests.
type Middleware struct {
	verifier Verifier
	users    UserProvisioner
	onError  ErrorWriter
}

// NewMiddleware creates the authentication middleware. users may be nil, in
// which case no just-in-time provisioning happens.
func NewMiddleware(verifier Verifier, users UserProvisioner, onError ErrorWriter) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{verifier: verifier, users: users, onError: onError}
}

// RequireAuth verifies the bearer token, provisions the caller's user record
// and stores the identity in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.Authenticate(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Request authentication failed")
			m.onError(w, r, err)
			return
		}

		if m.users != nil {
			if err := m.users.EnsureUser(r.Context(), id.User()); err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("user_id", id.UserID).Msg("Failed to provision user")
				m.onError(w, r, err)
				return
			}
		}

		ctx := ContextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate verifies the token carried by r. WebSocket clients cannot set
// headers from the browser, so the token query parameter is accepted as well.
func (m *Middleware) Authenticate(r *http.Request) (Identity, error) {
	raw, err := ExtractToken(r)
	if err != nil {
		return Identity{}, err
	}
	return m.verifier.Verify(raw)
}

// ExtractToken returns the bearer token from the Authorization header or the
// token query parameter.
func ExtractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("%w: invalid authorization header", models.ErrAuthentication)
		}
		return strings.TrimSpace(token), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%w: missing token", models.ErrAuthentication)
}

// ContextWithIdentity stores id in ctx and tags the logging context with the
// user id.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = logging.ContextWithUserID(ctx, id.UserID)
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
