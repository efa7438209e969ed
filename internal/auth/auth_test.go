// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"valid secret", testSecret, false},
		{"empty secret", "", true},
		{"short secret", "too-short", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: tt.secret})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewJWTManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAndVerify(t *testing.T) {
	m := newTestManager(t)
	want := Identity{UserID: "u-1", UserName: "alice", FullName: "Alice", Avatar: "/a.png"}

	token, err := m.GenerateToken(want)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != want {
		t.Errorf("Verify() = %+v, want %+v", got, want)
	}
}

func TestVerify_Rejects(t *testing.T) {
	m := newTestManager(t)

	valid, _ := m.GenerateToken(Identity{UserID: "u-1"})

	other, _ := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret + "-other"})
	foreign, _ := other.GenerateToken(Identity{UserID: "u-1"})

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.GenerateToken(Identity{UserID: "u-1"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noUser, _ := m.GenerateToken(Identity{UserName: "anon"})
	colon, _ := m.GenerateToken(Identity{UserID: "alice:x"})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"expired", stale},
		{"alg none", unsigned},
		{"no user id", noUser},
		{"user id with key separator", colon},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if !errors.Is(err, models.ErrAuthentication) {
				t.Errorf("Verify() error = %v, want ErrAuthentication", err)
			}
			if errors.Is(err, models.ErrValidation) {
				t.Errorf("Verify() error = %v must map to 401, not 400", err)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		query   string
		want    string
		wantErr bool
	}{
		{"bearer header", "Bearer abc", "", "abc", false},
		{"lowercase scheme", "bearer abc", "", "abc", false},
		{"query param", "", "?token=xyz", "xyz", false},
		{"header wins", "Bearer abc", "?token=xyz", "abc", false},
		{"basic scheme", "Basic abc", "", "", true},
		{"empty bearer", "Bearer ", "", "", true},
		{"missing", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractToken(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

type recordingProvisioner struct {
	users []models.User
	err   error
}

func (p *recordingProvisioner) EnsureUser(_ context.Context, u models.User) error {
	p.users = append(p.users, u)
	return p.err
}

func TestRequireAuth(t *testing.T) {
	m := newTestManager(t)
	token, _ := m.GenerateToken(Identity{UserID: "u-1", UserName: "alice"})

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		if logging.UserIDFromContext(r.Context()) != "u-1" {
			t.Error("user id missing from logging context")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token provisions user", func(t *testing.T) {
		users := &recordingProvisioner{}
		h := NewMiddleware(m, users, nil).RequireAuth(next)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}
		if seen.UserID != "u-1" {
			t.Errorf("identity = %+v", seen)
		}
		if len(users.users) != 1 || users.users[0].UserName != "alice" {
			t.Errorf("provisioned = %+v", users.users)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		var gotErr error
		onError := func(w http.ResponseWriter, _ *http.Request, err error) {
			gotErr = err
			w.WriteHeader(http.StatusUnauthorized)
		}
		h := NewMiddleware(m, nil, onError).RequireAuth(next)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
		if !errors.Is(gotErr, models.ErrAuthentication) {
			t.Errorf("error = %v, want ErrAuthentication", gotErr)
		}
	})

	t.Run("provisioning failure", func(t *testing.T) {
		users := &recordingProvisioner{err: models.ErrStore}
		h := NewMiddleware(m, users, nil).RequireAuth(next)

		r := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code == http.StatusNoContent {
			t.Error("handler ran despite provisioning failure")
		}
	})
}
