// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/auth"
	"github.com/tomtom215/socialrelay/internal/chat"
	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/notify"
	"github.com/tomtom215/socialrelay/internal/social"
	"github.com/tomtom215/socialrelay/internal/store"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

const testSecret = "0123456789abcdef0123456789abcdef"

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	hub    *websocket.Hub
	jwt    *auth.JWTManager
}

// newTestEnv wires the real services over an in-memory store. Background
// effects are discarded.
func newTestEnv(t *testing.T, mutate ...func(*Dependencies)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Security.JWTSecret = testSecret

	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHub()
	fanout := notify.NewFanout(s, hub, notify.ConfigFromConfig(cfg))
	deps := Dependencies{
		Config:        cfg,
		Store:         s,
		Hub:           hub,
		Chat:          chat.NewEngine(s, hub, nopPublisher{}, chat.ConfigFromConfig(cfg)),
		Notifications: fanout,
		Social:        social.NewService(s, fanout, hub, cfg.Store.Timeout),
		Auth:          auth.NewMiddleware(jwtManager, s, AuthErrorWriter),
		Users:         s,
	}
	for _, fn := range mutate {
		fn(&deps)
	}

	srv := httptest.NewServer(NewHandler(deps).SetupChi())
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, store: s, hub: hub, jwt: jwtManager}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(auth.Identity{UserID: userID, UserName: userID})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

// do sends a request as userID ("" for anonymous) and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path, userID string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	if env.Meta == nil || env.Meta.Timestamp.IsZero() {
		t.Errorf("%s %s: envelope without meta", method, path)
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}
