// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
)

// pairKey is identical for (a, b) and (b, a).
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return convPairPrefix + a + ":" + b
}

func getConversation(txn *badger.Txn, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := getJSON(txn, convPrefix+id, &c)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound("conversation", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateOrGetConversation returns the conversation between a and b, creating
// it when none exists. created reports whether a new record was written.
// The pair index is read and written in one transaction, so concurrent
// callers converge on the same conversation.
func (s *Store) CreateOrGetConversation(ctx context.Context, a, b string) (conv *models.Conversation, created bool, err error) {
	if a == b {
		return nil, false, fmt.Errorf("%w: a conversation needs two distinct participants", models.ErrValidation)
	}
	for _, id := range []string{a, b} {
		if err := validation.UserID(id); err != nil {
			return nil, false, err
		}
	}

	err = s.update(ctx, "create_conversation", func(txn *badger.Txn) error {
		created = false
		item, err := txn.Get([]byte(pairKey(a, b)))
		switch {
		case err == nil:
			var id []byte
			if id, err = item.ValueCopy(nil); err != nil {
				return err
			}
			if conv, err = getConversation(txn, string(id)); err != nil {
				return err
			}
			if !conv.HasParticipant(a) || !conv.HasParticipant(b) {
				return fmt.Errorf("%w: pair index for %s does not match its participants", models.ErrStore, conv.ID)
			}
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		for _, id := range []string{a, b} {
			ok, err := exists(txn, userPrefix+id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound("user", id)
			}
		}

		now := time.Now().UTC()
		conv = &models.Conversation{
			ID:           uuid.NewString(),
			Participants: []string{a, b},
			UnreadCount:  map[string]int{a: 0, b: 0},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := setJSON(txn, convPrefix+conv.ID, conv); err != nil {
			return err
		}
		if err := txn.Set([]byte(pairKey(a, b)), []byte(conv.ID)); err != nil {
			return err
		}
		for _, p := range conv.Participants {
			if err := txn.Set([]byte(convUserPrefix+p+":"+conv.ID), nil); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

// GetConversation returns the conversation with id or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv *models.Conversation
	err := s.view(ctx, "get_conversation", func(txn *badger.Txn) error {
		var err error
		conv, err = getConversation(txn, id)
		return err
	})
	return conv, err
}

// ListConversations returns every conversation userID takes part in, most
// recently updated first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.view(ctx, "list_conversations", func(txn *badger.Txn) error {
		var ids []string
		err := scanPrefix(txn, convUserPrefix+userID+":", false, func(item *badger.Item) (bool, error) {
			ids = append(ids, lastSegment(item.Key()))
			return true, nil
		})
		if err != nil {
			return err
		}

		convs = make([]models.Conversation, 0, len(ids))
		for _, id := range ids {
			c, err := getConversation(txn, id)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !c.HasParticipant(userID) {
				continue
			}
			convs = append(convs, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// AppendMessage persists msg and points the conversation's lastMessage at it
// in the same transaction. The sender must be a participant; otherwise the
// conversation is reported as not found. The updated conversation is
// returned.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) (*models.Conversation, error) {
	seq, err := s.nextSeq()
	if err != nil {
		return nil, err
	}
	msgKey := msgPrefix + msg.ConversationID + ":" + seq

	var conv *models.Conversation
	err = s.update(ctx, "append_message", func(txn *badger.Txn) error {
		var err error
		conv, err = getConversation(txn, msg.ConversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(msg.Sender) {
			return notFound("conversation", msg.ConversationID)
		}

		if err := setJSON(txn, msgKey, msg); err != nil {
			return err
		}
		if err := txn.Set([]byte(msgIDPrefix+msg.ID), []byte(msgKey)); err != nil {
			return err
		}

		conv.LastMessage = msg.ID
		conv.UpdatedAt = msg.CreatedAt
		return setJSON(txn, convPrefix+conv.ID, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListMessages returns up to limit messages of a conversation newest first,
// skipping the offset newest ones.
func (s *Store) ListMessages(ctx context.Context, convID string, offset, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}
	msgs := make([]models.Message, 0, limit)
	err := s.view(ctx, "list_messages", func(txn *badger.Txn) error {
		skipped := 0
		return scanPrefix(txn, msgPrefix+convID+":", true, func(item *badger.Item) (bool, error) {
			if skipped < offset {
				skipped++
				return true, nil
			}
			var m models.Message
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
				return false, err
			}
			msgs = append(msgs, m)
			return len(msgs) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func getMessageKey(txn *badger.Txn, msgID string) (string, error) {
	item, err := txn.Get([]byte(msgIDPrefix + msgID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", notFound("message", msgID)
	}
	if err != nil {
		return "", err
	}
	key, err := item.ValueCopy(nil)
	return string(key), err
}

// GetMessages resolves message ids. Unknown ids are left out of the result.
func (s *Store) GetMessages(ctx context.Context, ids ...string) (map[string]models.Message, error) {
	out := make(map[string]models.Message, len(ids))
	err := s.view(ctx, "get_messages", func(txn *badger.Txn) error {
		for _, id := range ids {
			if id == "" {
				continue
			}
			key, err := getMessageKey(txn, id)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var m models.Message
			if err := getJSON(txn, key, &m); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			out[id] = m
		}
		return nil
	})
	return out, err
}
