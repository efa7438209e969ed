// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func seedUsers(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		u := models.User{ID: id, UserName: id, FullName: "User " + id}
		if err := s.EnsureUser(context.Background(), u); err != nil {
			t.Fatalf("EnsureUser(%s) error = %v", id, err)
		}
	}
}

func seedConversation(t *testing.T, s *Store, a, b string) *models.Conversation {
	t.Helper()
	conv, _, err := s.CreateOrGetConversation(context.Background(), a, b)
	if err != nil {
		t.Fatalf("CreateOrGetConversation() error = %v", err)
	}
	return conv
}

func appendText(t *testing.T, s *Store, convID, sender, content string) *models.Message {
	t.Helper()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Sender:         sender,
		Content:        content,
		Type:           models.ContentText,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.AppendMessage(context.Background(), msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	return msg
}

func TestStore_Ping(t *testing.T) {
	s := setupStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.EnsureUser(ctx, models.User{ID: "u1", UserName: "u1"})
	if !errors.Is(err, models.ErrStore) {
		t.Errorf("EnsureUser() error = %v, want ErrStore", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("EnsureUser() error = %v, want context.Canceled in chain", err)
	}
}

func TestStore_RunGCOnDisk(t *testing.T) {
	s, err := Open(Options{Path: t.TempDir(), TxnRetries: 2})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	seedUsers(t, s, "alice")
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
}

func TestEnsureUser(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.EnsureUser(ctx, models.User{}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("EnsureUser(empty) error = %v, want ErrValidation", err)
	}

	if err := s.EnsureUser(ctx, models.User{ID: "alice", UserName: "alice"}); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	first, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if first.Avatar != models.DefaultAvatar {
		t.Errorf("Avatar = %q, want default %q", first.Avatar, models.DefaultAvatar)
	}

	if err := s.EnsureUser(ctx, models.User{ID: "alice", UserName: "alice", FullName: "Alice A", Avatar: "/a.png"}); err != nil {
		t.Fatalf("EnsureUser(update) error = %v", err)
	}
	second, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if second.FullName != "Alice A" || second.Avatar != "/a.png" {
		t.Errorf("profile not refreshed: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", first.CreatedAt, second.CreatedAt)
	}

	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetUser(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestUserSummaries(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice", "bob")

	got, err := s.UserSummaries(context.Background(), "alice", "bob", "alice", "", "ghost")
	if err != nil {
		t.Fatalf("UserSummaries() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(got), got)
	}
	if got["bob"].FullName != "User bob" {
		t.Errorf("bob = %+v", got["bob"])
	}
	if got["ghost"] != models.UnknownUser("ghost") {
		t.Errorf("ghost = %+v, want unknown placeholder", got["ghost"])
	}
	if _, ok := s.users.Get("ghost"); ok {
		t.Error("unknown users must not be cached")
	}
}

func TestFollow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")

	if err := s.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if err := s.Follow(ctx, "alice", "bob"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("second Follow() error = %v, want ErrConflict", err)
	}
	if err := s.Follow(ctx, "alice", "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Follow(unknown) error = %v, want ErrNotFound", err)
	}

	ok, err := s.IsFollowing(ctx, "alice", "bob")
	if err != nil || !ok {
		t.Errorf("IsFollowing() = %v, %v; want true", ok, err)
	}
	followers, err := s.Followers(ctx, "bob")
	if err != nil {
		t.Fatalf("Followers() error = %v", err)
	}
	if len(followers) != 1 || followers[0] != "alice" {
		t.Errorf("Followers() = %v, want [alice]", followers)
	}

	for i := 0; i < 2; i++ {
		if err := s.Unfollow(ctx, "alice", "bob"); err != nil {
			t.Fatalf("Unfollow() #%d error = %v", i, err)
		}
	}
	if ok, _ := s.IsFollowing(ctx, "alice", "bob"); ok {
		t.Error("still following after Unfollow")
	}
	if err := s.Unfollow(ctx, "alice", "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Unfollow(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestCreateOrGetConversation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")

	tests := []struct {
		name    string
		a, b    string
		wantErr error
	}{
		{"self", "alice", "alice", models.ErrValidation},
		{"empty other", "alice", "", models.ErrValidation},
		{"unknown other", "alice", "ghost", models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.CreateOrGetConversation(ctx, tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	ab, created, err := s.CreateOrGetConversation(ctx, "alice", "bob")
	if err != nil || !created {
		t.Fatalf("first create = %v, %v", created, err)
	}
	if ab.Unread("alice") != 0 || ab.Unread("bob") != 0 {
		t.Errorf("new conversation unread = %v", ab.UnreadCount)
	}
	ba, created, err := s.CreateOrGetConversation(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("reverse create error = %v", err)
	}
	if created || ba.ID != ab.ID {
		t.Errorf("reverse create = %s (created %v), want existing %s", ba.ID, created, ab.ID)
	}
}

func TestCreateOrGetConversation_Concurrent(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice", "bob")

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			conv, _, err := s.CreateOrGetConversation(context.Background(), a, b)
			if err != nil {
				t.Errorf("worker %d error = %v", i, err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("workers disagree on conversation id: %v", ids)
		}
	}
	convs, err := s.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 1 {
		t.Errorf("alice has %d conversations, want 1", len(convs))
	}
}

func TestAppendMessage(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob", "carol")
	conv := seedConversation(t, s, "alice", "bob")

	msg := appendText(t, s, conv.ID, "alice", "hi")
	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if got.LastMessage != msg.ID {
		t.Errorf("LastMessage = %q, want %q", got.LastMessage, msg.ID)
	}
	if got.Unread("bob") != 0 {
		t.Errorf("append must not touch unread, bob = %d", got.Unread("bob"))
	}

	outsider := &models.Message{ID: uuid.NewString(), ConversationID: conv.ID, Sender: "carol", Content: "x"}
	if _, err := s.AppendMessage(ctx, outsider); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("outsider append error = %v, want ErrNotFound", err)
	}
	missing := &models.Message{ID: uuid.NewString(), ConversationID: "nope", Sender: "alice", Content: "x"}
	if _, err := s.AppendMessage(ctx, missing); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown conversation append error = %v, want ErrNotFound", err)
	}

	byID, err := s.GetMessages(ctx, msg.ID, "unknown")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(byID) != 1 || byID[msg.ID].Content != "hi" {
		t.Errorf("GetMessages() = %+v", byID)
	}
}

func TestListMessages_Order(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")
	conv := seedConversation(t, s, "alice", "bob")

	var sent []string
	for i := 0; i < 5; i++ {
		sent = append(sent, appendText(t, s, conv.ID, "alice", "m").ID)
	}

	page, err := s.ListMessages(ctx, conv.ID, 0, 3)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	want := []string{sent[4], sent[3], sent[2]}
	for i, m := range page {
		if m.ID != want[i] {
			t.Errorf("page[%d] = %s, want %s", i, m.ID, want[i])
		}
	}

	rest, err := s.ListMessages(ctx, conv.ID, 3, 3)
	if err != nil {
		t.Fatalf("ListMessages(offset) error = %v", err)
	}
	if len(rest) != 2 || rest[0].ID != sent[1] || rest[1].ID != sent[0] {
		t.Errorf("second page = %+v", rest)
	}

	none, err := s.ListMessages(ctx, conv.ID, 0, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("ListMessages(limit 0) = %v, %v", none, err)
	}
}

func TestListConversations_SortedByUpdate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob", "carol")
	ab := seedConversation(t, s, "alice", "bob")
	ac := seedConversation(t, s, "alice", "carol")

	// Writing to the older conversation moves it to the top.
	msg := &models.Message{ID: uuid.NewString(), ConversationID: ab.ID, Sender: "bob", Content: "x",
		CreatedAt: time.Now().UTC().Add(time.Minute)}
	if _, err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	convs, err := s.ListConversations(ctx, "alice")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 || convs[0].ID != ab.ID || convs[1].ID != ac.ID {
		t.Errorf("order = %v", convs)
	}
}

func TestMarkMessageRead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob", "carol")
	conv := seedConversation(t, s, "alice", "bob")
	other := seedConversation(t, s, "alice", "carol")

	msg := appendText(t, s, conv.ID, "alice", "hello")
	if _, err := s.ReconcileUnread(ctx, conv.ID, "bob"); err != nil {
		t.Fatalf("ReconcileUnread() error = %v", err)
	}

	now := time.Now().UTC()
	added, err := s.MarkMessageRead(ctx, conv.ID, msg.ID, "bob", now)
	if err != nil || !added {
		t.Fatalf("MarkMessageRead() = %v, %v; want added", added, err)
	}
	added, err = s.MarkMessageRead(ctx, conv.ID, msg.ID, "bob", now)
	if err != nil || added {
		t.Fatalf("repeat MarkMessageRead() = %v, %v; want no-op", added, err)
	}

	got, _ := s.GetConversation(ctx, conv.ID)
	if got.Unread("bob") != 0 {
		t.Errorf("bob unread = %d, want 0", got.Unread("bob"))
	}
	msgs, _ := s.GetMessages(ctx, msg.ID)
	if n := len(msgs[msg.ID].ReadBy); n != 1 {
		t.Errorf("receipts = %d, want 1", n)
	}

	t.Run("own message is a no-op", func(t *testing.T) {
		added, err := s.MarkMessageRead(ctx, conv.ID, msg.ID, "alice", now)
		if err != nil || added {
			t.Errorf("MarkMessageRead(sender) = %v, %v", added, err)
		}
	})
	t.Run("message from another conversation", func(t *testing.T) {
		_, err := s.MarkMessageRead(ctx, other.ID, msg.ID, "alice", now)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
	t.Run("non participant", func(t *testing.T) {
		_, err := s.MarkMessageRead(ctx, conv.ID, msg.ID, "carol", now)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
	t.Run("counter never goes negative", func(t *testing.T) {
		second := appendText(t, s, conv.ID, "alice", "again")
		// Counter is still 0 because no reconcile ran.
		if _, err := s.MarkMessageRead(ctx, conv.ID, second.ID, "bob", now); err != nil {
			t.Fatalf("MarkMessageRead() error = %v", err)
		}
		got, _ := s.GetConversation(ctx, conv.ID)
		if got.Unread("bob") != 0 {
			t.Errorf("bob unread = %d, want clamped 0", got.Unread("bob"))
		}
	})
}

func TestMarkMessageRead_ConcurrentReaders(t *testing.T) {
	// Every reader rewrites the same conversation record, so allow enough
	// conflict retries for all of them to land.
	s, err := Open(Options{InMemory: true, TxnRetries: 64})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")
	conv := seedConversation(t, s, "alice", "bob")

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = appendText(t, s, conv.ID, "alice", "m").ID
	}
	if c, err := s.ReconcileUnread(ctx, conv.ID, "bob"); err != nil || c != n {
		t.Fatalf("ReconcileUnread() = %d, %v", c, err)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.MarkMessageRead(ctx, conv.ID, id, "bob", time.Now()); err != nil {
				t.Errorf("MarkMessageRead(%s) error = %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	got, _ := s.GetConversation(ctx, conv.ID)
	if got.Unread("bob") != 0 {
		t.Errorf("bob unread = %d after reading everything, want 0", got.Unread("bob"))
	}
}

func TestMarkConversationRead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")
	conv := seedConversation(t, s, "alice", "bob")

	for i := 0; i < 3; i++ {
		appendText(t, s, conv.ID, "alice", "from alice")
	}
	own := appendText(t, s, conv.ID, "bob", "from bob")
	if _, err := s.ReconcileUnread(ctx, conv.ID, "bob"); err != nil {
		t.Fatalf("ReconcileUnread() error = %v", err)
	}

	marked, err := s.MarkConversationRead(ctx, conv.ID, "bob", time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkConversationRead() error = %v", err)
	}
	if marked != 3 {
		t.Errorf("marked = %d, want 3", marked)
	}

	got, _ := s.GetConversation(ctx, conv.ID)
	if got.Unread("bob") != 0 {
		t.Errorf("bob unread = %d, want 0", got.Unread("bob"))
	}
	msgs, _ := s.GetMessages(ctx, own.ID)
	if len(msgs[own.ID].ReadBy) != 0 {
		t.Error("own message must not get a receipt")
	}

	again, err := s.MarkConversationRead(ctx, conv.ID, "bob", time.Now().UTC())
	if err != nil || again != 0 {
		t.Errorf("second MarkConversationRead() = %d, %v; want 0", again, err)
	}
}

func TestMarkConversationRead_LargeBacklog(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")
	conv := seedConversation(t, s, "alice", "bob")

	total := maxBatch + 7
	for i := 0; i < total; i++ {
		appendText(t, s, conv.ID, "alice", "m")
	}

	marked, err := s.MarkConversationRead(ctx, conv.ID, "bob", time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkConversationRead() error = %v", err)
	}
	if marked != total {
		t.Errorf("marked = %d, want %d", marked, total)
	}
	if n, _ := s.ReconcileUnread(ctx, conv.ID, "bob"); n != 0 {
		t.Errorf("recount after bulk read = %d, want 0", n)
	}
}

func TestReconcileUnread(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")
	conv := seedConversation(t, s, "alice", "bob")

	appendText(t, s, conv.ID, "alice", "one")
	appendText(t, s, conv.ID, "alice", "two")
	appendText(t, s, conv.ID, "bob", "reply")

	for i := 0; i < 2; i++ {
		n, err := s.ReconcileUnread(ctx, conv.ID, "bob")
		if err != nil {
			t.Fatalf("ReconcileUnread() error = %v", err)
		}
		if n != 2 {
			t.Errorf("run %d: bob unread = %d, want 2", i, n)
		}
	}
	if n, _ := s.ReconcileUnread(ctx, conv.ID, "alice"); n != 1 {
		t.Errorf("alice unread = %d, want 1", n)
	}

	if _, err := s.ReconcileUnread(ctx, "missing", "bob"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown conversation error = %v, want ErrNotFound", err)
	}
}

func newNotification(recipient, sender string) *models.Notification {
	return &models.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Sender:    sender,
		Kind:      models.KindLike,
		Message:   "liked your post",
		CreatedAt: time.Now().UTC(),
	}
}

func TestNotifications(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		n := newNotification("alice", "bob")
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification() error = %v", err)
		}
		ids = append(ids, n.ID)
	}
	foreign := newNotification("bob", "alice")
	if err := s.CreateNotification(ctx, foreign); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListNotifications(ctx, "alice", 3)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[3] || list[2].ID != ids[1] {
		t.Errorf("ListNotifications() returned wrong order or size: %+v", list)
	}

	t.Run("mark read is owner scoped", func(t *testing.T) {
		if _, err := s.MarkNotificationRead(ctx, "alice", foreign.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("foreign mark error = %v, want ErrNotFound", err)
		}
		if _, err := s.MarkNotificationRead(ctx, "alice", "missing"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("missing mark error = %v, want ErrNotFound", err)
		}
		for i := 0; i < 2; i++ {
			n, err := s.MarkNotificationRead(ctx, "alice", ids[0])
			if err != nil || !n.IsRead {
				t.Errorf("MarkNotificationRead() = %+v, %v", n, err)
			}
		}
	})

	t.Run("mark all", func(t *testing.T) {
		n, err := s.MarkAllNotificationsRead(ctx, "alice")
		if err != nil || n != 3 {
			t.Errorf("MarkAllNotificationsRead() = %d, %v; want 3", n, err)
		}
		n, err = s.MarkAllNotificationsRead(ctx, "alice")
		if err != nil || n != 0 {
			t.Errorf("repeat MarkAllNotificationsRead() = %d, %v; want 0", n, err)
		}
		n, err = s.MarkAllNotificationsRead(ctx, "nobody")
		if err != nil || n != 0 {
			t.Errorf("MarkAllNotificationsRead(empty) = %d, %v; want 0", n, err)
		}
		bobs, _ := s.ListNotifications(ctx, "bob", 10)
		if len(bobs) != 1 || bobs[0].IsRead {
			t.Errorf("other recipients must be untouched: %+v", bobs)
		}
	})
}

func TestUserIDs_RejectKeySeparator(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")

	if err := s.EnsureUser(ctx, models.User{ID: "alice:x", UserName: "x"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("EnsureUser(alice:x) error = %v, want ErrValidation", err)
	}
	if err := s.CreateNotification(ctx, newNotification("alice:x", "bob")); !errors.Is(err, models.ErrValidation) {
		t.Errorf("CreateNotification(alice:x) error = %v, want ErrValidation", err)
	}
	if _, _, err := s.CreateOrGetConversation(ctx, "alice", "bob:c"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("CreateOrGetConversation(alice, bob:c) error = %v, want ErrValidation", err)
	}
}

// Records written under a colliding key prefix must still be scoped to the
// id stored in the record itself.
func TestOwnershipChecksUseRecords(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice", "bob")

	other := newNotification("alice:x", "bob")
	seq, err := s.nextSeq()
	if err != nil {
		t.Fatal(err)
	}
	otherKey := notifPrefix + other.Recipient + ":" + seq

	foreignConv := &models.Conversation{
		ID:           uuid.NewString(),
		Participants: []string{"alice:x", "bob"},
		UnreadCount:  map[string]int{"alice:x": 0, "bob": 0},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, otherKey, other); err != nil {
			return err
		}
		if err := txn.Set([]byte(notifIDPrefix+other.ID), []byte(otherKey)); err != nil {
			return err
		}
		if err := setJSON(txn, convPrefix+foreignConv.ID, foreignConv); err != nil {
			return err
		}
		if err := txn.Set([]byte(convUserPrefix+"alice:x:"+foreignConv.ID), nil); err != nil {
			return err
		}
		return txn.Set([]byte(pairKey("alice", "bob")), []byte(foreignConv.ID))
	})
	if err != nil {
		t.Fatal(err)
	}

	if list, err := s.ListNotifications(ctx, "alice", 10); err != nil || len(list) != 0 {
		t.Errorf("ListNotifications(alice) = %+v, %v; want none", list, err)
	}
	if _, err := s.MarkNotificationRead(ctx, "alice", other.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkNotificationRead(alice, other) error = %v, want ErrNotFound", err)
	}
	if n, err := s.MarkAllNotificationsRead(ctx, "alice"); err != nil || n != 0 {
		t.Errorf("MarkAllNotificationsRead(alice) = %d, %v; want 0", n, err)
	}
	var stored models.Notification
	if err := s.db.View(func(txn *badger.Txn) error { return getJSON(txn, otherKey, &stored) }); err != nil || stored.IsRead {
		t.Errorf("foreign notification changed: %+v, %v", stored, err)
	}

	if convs, err := s.ListConversations(ctx, "alice"); err != nil || len(convs) != 0 {
		t.Errorf("ListConversations(alice) = %+v, %v; want none", convs, err)
	}
	if _, _, err := s.CreateOrGetConversation(ctx, "alice", "bob"); !errors.Is(err, models.ErrStore) {
		t.Errorf("CreateOrGetConversation over a mismatched pair index error = %v, want ErrStore", err)
	}
}

func TestPosts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	post := &models.Post{ID: uuid.NewString(), UserID: "alice", MediaURL: "https://cdn/x.png", MediaType: models.MediaImage}
	if err := s.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	_, liked, err := s.TogglePostLike(ctx, post.ID, "bob")
	if err != nil || !liked {
		t.Fatalf("TogglePostLike() = %v, %v", liked, err)
	}
	p, liked, err := s.TogglePostLike(ctx, post.ID, "bob")
	if err != nil || liked || len(p.Likes) != 0 {
		t.Errorf("second TogglePostLike() = %v, likes %v, %v", liked, p.Likes, err)
	}

	_, marked, err := s.TogglePostBookmark(ctx, post.ID, "carol")
	if err != nil || !marked {
		t.Errorf("TogglePostBookmark() = %v, %v", marked, err)
	}

	c := models.Comment{ID: uuid.NewString(), UserID: "bob", Text: "nice"}
	p, err = s.AddPostComment(ctx, post.ID, c)
	if err != nil || len(p.Comments) != 1 {
		t.Errorf("AddPostComment() = %+v, %v", p, err)
	}

	refs, err := s.PostRefs(ctx, post.ID, "missing", "")
	if err != nil {
		t.Fatalf("PostRefs() error = %v", err)
	}
	if len(refs) != 1 || refs[post.ID].MediaURL != post.MediaURL {
		t.Errorf("PostRefs() = %+v", refs)
	}

	if _, _, err := s.TogglePostLike(ctx, "missing", "bob"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("like unknown post error = %v, want ErrNotFound", err)
	}
}
