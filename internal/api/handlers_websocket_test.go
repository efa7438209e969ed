// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (e *testEnv) dial(t *testing.T, query string, header http.Header) (*gorillaws.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/api/v1/ws" + query
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readUntil(t *testing.T, conn *gorillaws.Conn, eventType string) wireEvent {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	for {
		var evt wireEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		if evt.Type == eventType {
			return evt
		}
	}
}

func TestWebSocket_Handshake(t *testing.T) {
	env := newTestEnv(t)
	origin := http.Header{"Origin": []string{"http://app.test"}}

	tests := []struct {
		name   string
		query  string
		header http.Header
		status int
	}{
		{"no token", "", origin, http.StatusUnauthorized},
		{"bad token", "?token=garbage", origin, http.StatusUnauthorized},
		{"no origin", "?token=" + env.token(t, "alice"), nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := env.dial(t, tt.query, tt.header)
			if err == nil {
				t.Fatal("handshake succeeded")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("response = %+v, want status %d", resp, tt.status)
			}
			resp.Body.Close()
		})
	}
}

func TestWebSocket_SendAndReceive(t *testing.T) {
	env := newTestEnv(t)
	origin := http.Header{"Origin": []string{"http://app.test"}}

	alice, _, err := env.dial(t, "?token="+env.token(t, "alice"), origin)
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	bobHeader := origin.Clone()
	bobHeader.Set("Authorization", "Bearer "+env.token(t, "bob"))
	bob, _, err := env.dial(t, "", bobHeader)
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}

	// Both users were provisioned by the handshake.
	conv, _, err := env.store.CreateOrGetConversation(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range []*gorillaws.Conn{alice, bob} {
		if err := c.WriteJSON(map[string]any{"type": "join_conversation", "data": conv.ID}); err != nil {
			t.Fatal(err)
		}
	}
	// join is silent; a ping round trip proves it was handled.
	for _, c := range []*gorillaws.Conn{alice, bob} {
		if err := c.WriteJSON(map[string]any{"type": "ping"}); err != nil {
			t.Fatal(err)
		}
		readUntil(t, c, websocket.EventPong)
	}

	if err := alice.WriteJSON(map[string]any{
		"type": "send_message",
		"data": map[string]string{"conversationId": conv.ID, "content": "hello bob"},
	}); err != nil {
		t.Fatal(err)
	}

	for name, c := range map[string]*gorillaws.Conn{"alice": alice, "bob": bob} {
		evt := readUntil(t, c, websocket.EventNewMessage)
		var msg models.MessageView
		if err := json.Unmarshal(evt.Data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Content != "hello bob" || msg.Sender.ID != "alice" {
			t.Errorf("%s received %+v", name, msg)
		}
	}

	if err := bob.WriteJSON(map[string]any{"type": "send_message", "data": map[string]string{"conversationId": conv.ID, "content": "   "}}); err != nil {
		t.Fatal(err)
	}
	evt := readUntil(t, bob, websocket.EventError)
	var data websocket.ErrorData
	if err := json.Unmarshal(evt.Data, &data); err != nil || data.Event != websocket.EventSendMessage {
		t.Errorf("error event = %s, %v", evt.Data, err)
	}
}
