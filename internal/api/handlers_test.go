// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tomtom215/socialrelay/internal/chat"
	"github.com/tomtom215/socialrelay/internal/models"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return models.ErrStore }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		status, resp := env.do(t, http.MethodGet, path, "", nil)
		if status != http.StatusOK || !resp.Success {
			t.Errorf("GET %s = %d, %+v", path, status, resp.Error)
		}
	}

	down := newTestEnv(t, func(d *Dependencies) { d.Store = downStore{} })
	status, resp := down.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if status != http.StatusServiceUnavailable || resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("ready with store down = %d, %+v", status, resp.Error)
	}
	if status, _ := down.do(t, http.MethodGet, "/api/v1/health/live", "", nil); status != http.StatusOK {
		t.Errorf("live with store down = %d, want 200", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics = %d", resp.StatusCode)
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"wrong scheme", "Basic abc"},
		{"forged token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}

	// A verified token provisions the user record.
	if status, _ := env.do(t, http.MethodGet, "/api/v1/notifications", "dana", nil); status != http.StatusOK {
		t.Fatalf("authenticated request = %d", status)
	}
	if _, err := env.store.GetUser(context.Background(), "dana"); err != nil {
		t.Errorf("user not provisioned: %v", err)
	}
}

func TestConversationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, u := range []string{"alice", "bob", "carol"} {
		env.do(t, http.MethodGet, "/api/v1/notifications", u, nil)
	}

	status, resp := env.do(t, http.MethodPost, "/api/v1/chat/conversations", "alice", CreateConversationRequest{ParticipantID: "bob"})
	if status != http.StatusOK {
		t.Fatalf("create = %d, %+v", status, resp.Error)
	}
	conv := decodeData[models.ConversationView](t, resp)

	// Symmetric: bob gets the same conversation.
	_, resp = env.do(t, http.MethodPost, "/api/v1/chat/conversations", "bob", CreateConversationRequest{ParticipantID: "alice"})
	if again := decodeData[models.ConversationView](t, resp); again.ID != conv.ID {
		t.Errorf("second create id = %s, want %s", again.ID, conv.ID)
	}

	if _, err := env.store.AppendMessage(context.Background(), &models.Message{
		ID: "m1", ConversationID: conv.ID, Sender: "alice", Content: "hi", Type: models.ContentText,
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"self conversation", http.MethodPost, "/api/v1/chat/conversations", "alice", CreateConversationRequest{ParticipantID: "alice"}, 400, ErrCodeValidationFailed},
		{"blank participant", http.MethodPost, "/api/v1/chat/conversations", "alice", CreateConversationRequest{ParticipantID: "  "}, 400, ErrCodeValidationFailed},
		{"participant with key separator", http.MethodPost, "/api/v1/chat/conversations", "alice", CreateConversationRequest{ParticipantID: "bob:x"}, 400, ErrCodeValidationFailed},
		{"unknown participant", http.MethodPost, "/api/v1/chat/conversations", "alice", CreateConversationRequest{ParticipantID: "ghost"}, 404, ErrCodeNotFound},
		{"list", http.MethodGet, "/api/v1/chat/conversations", "alice", nil, 200, ""},
		{"messages", http.MethodGet, "/api/v1/chat/conversations/" + conv.ID + "/messages", "bob", nil, 200, ""},
		{"bad page", http.MethodGet, "/api/v1/chat/conversations/" + conv.ID + "/messages?page=0", "bob", nil, 400, ErrCodeValidationFailed},
		{"page not a number", http.MethodGet, "/api/v1/chat/conversations/" + conv.ID + "/messages?page=x", "bob", nil, 400, ErrCodeValidationFailed},
		{"outsider", http.MethodGet, "/api/v1/chat/conversations/" + conv.ID + "/messages", "carol", nil, 404, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, tt.method, tt.path, tt.user, tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%+v)", status, tt.status, resp.Error)
			}
			if tt.code != "" && (resp.Error == nil || resp.Error.Code != tt.code) {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.code)
			}
		})
	}

	// Fetching reset bob's unread counter.
	_, resp = env.do(t, http.MethodGet, "/api/v1/chat/conversations", "bob", nil)
	list := decodeData[chat.ConversationList](t, resp)
	if len(list.Conversations) != 1 || list.UnreadCounts[conv.ID] != 0 {
		t.Errorf("bob's list = %+v", list)
	}
}

func TestPostAndNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/notifications", "bob", nil)

	status, resp := env.do(t, http.MethodPost, "/api/v1/posts", "alice", map[string]string{
		"text": "beach day", "mediaUrl": "https://cdn.test/beach.jpg", "mediaType": "image",
	})
	if status != http.StatusCreated {
		t.Fatalf("create post = %d, %+v", status, resp.Error)
	}
	post := decodeData[models.Post](t, resp)

	status, resp = env.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/like", "bob", nil)
	if likes := decodeData[LikesResult](t, resp); status != 200 || len(likes.Likes) != 1 {
		t.Fatalf("like = %d, %+v", status, likes)
	}
	status, _ = env.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/comment", "bob", AddCommentRequest{Text: "nice"})
	if status != http.StatusCreated {
		t.Errorf("comment = %d", status)
	}
	if status, resp = env.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/comment", "bob", AddCommentRequest{Text: " "}); status != 400 {
		t.Errorf("blank comment = %d", status)
	} else if len(resp.Error.Code) == 0 {
		t.Error("blank comment without error code")
	}
	if status, _ = env.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/bookmark", "bob", nil); status != 200 {
		t.Errorf("bookmark = %d", status)
	}
	if status, _ = env.do(t, http.MethodPost, "/api/v1/posts/missing/like", "bob", nil); status != 404 {
		t.Errorf("like missing post = %d", status)
	}
	if status, _ = env.do(t, http.MethodPost, "/api/v1/posts", "alice", map[string]string{"mediaUrl": "https://cdn.test/x.jpg"}); status != 400 {
		t.Errorf("post without media type = %d", status)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/notifications", "alice", nil)
	notes := decodeData[[]models.NotificationView](t, resp)
	if len(notes) != 2 || notes[0].Kind != models.KindComment || notes[1].Kind != models.KindLike {
		t.Fatalf("notifications = %+v", notes)
	}
	if notes[1].Post == nil || notes[1].Post.MediaURL != post.MediaURL {
		t.Errorf("like notification post = %+v", notes[1].Post)
	}

	status, resp = env.do(t, http.MethodPut, "/api/v1/notifications/"+notes[1].ID+"/read", "alice", nil)
	if n := decodeData[models.NotificationView](t, resp); status != 200 || !n.IsRead {
		t.Errorf("mark read = %d, %+v", status, n)
	}
	if status, _ = env.do(t, http.MethodPut, "/api/v1/notifications/"+notes[1].ID+"/read", "bob", nil); status != 404 {
		t.Errorf("foreign mark read = %d, want 404", status)
	}
	_, resp = env.do(t, http.MethodPut, "/api/v1/notifications/read-all", "alice", nil)
	if res := decodeData[MarkAllReadResult](t, resp); res.Updated != 1 {
		t.Errorf("read-all updated %d, want 1", res.Updated)
	}
	if status, _ = env.do(t, http.MethodGet, "/api/v1/notifications?limit=-1", "alice", nil); status != 400 {
		t.Errorf("negative limit = %d", status)
	}
}

func TestFollowEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/notifications", "alice", nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"follow", "/api/v1/users/alice/follow", 200},
		{"follow twice", "/api/v1/users/alice/follow", 409},
		{"follow self", "/api/v1/users/bob/follow", 400},
		{"follow unknown", "/api/v1/users/ghost/follow", 404},
		{"unfollow", "/api/v1/users/alice/unfollow", 200},
		{"unfollow again", "/api/v1/users/alice/unfollow", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, resp := env.do(t, http.MethodPost, tt.path, "bob", nil); status != tt.status {
				t.Errorf("status = %d, want %d (%+v)", status, tt.status, resp.Error)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	status, resp := env.do(t, http.MethodGet, "/nope", "", nil)
	if status != http.StatusNotFound || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route = %d, %+v", status, resp.Error)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.ErrValidation, 400},
		{models.ErrAuthentication, 401},
		{models.ErrForbidden, 403},
		{models.ErrNotFound, 404},
		{models.ErrConflict, 409},
		{models.ErrStore, 500},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		if status, _ := statusFor(tt.err); status != tt.status {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, status, tt.status)
		}
	}
}
