// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/models"
)

// Unread counters live on the conversation record. Every operation here
// runs in one read-write transaction that also reads the conversation, so
// two concurrent updates of the same counter conflict and the loser is
// retried against the winner's result.

func participantConversation(txn *badger.Txn, convID, userID string) (*models.Conversation, error) {
	conv, err := getConversation(txn, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, notFound("conversation", convID)
	}
	return conv, nil
}

// MarkMessageRead adds a receipt for reader to the message and, when the
// receipt is new, decrements reader's unread counter (never below zero).
// It reports whether a receipt was added, so repeated calls are no-ops.
// Readers never get receipts on their own messages.
func (s *Store) MarkMessageRead(ctx context.Context, convID, msgID, reader string, at time.Time) (bool, error) {
	var added bool
	err := s.update(ctx, "mark_message_read", func(txn *badger.Txn) error {
		added = false
		conv, err := participantConversation(txn, convID, reader)
		if err != nil {
			return err
		}

		key, err := getMessageKey(txn, msgID)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(key, msgPrefix+convID+":") {
			return notFound("message", msgID)
		}

		var msg models.Message
		if err := getJSON(txn, key, &msg); err != nil {
			return err
		}
		if msg.Sender == reader || !msg.AddReceipt(reader, at) {
			return nil
		}
		if err := setJSON(txn, key, &msg); err != nil {
			return err
		}

		conv.SetUnread(reader, conv.Unread(reader)-1)
		added = true
		return setJSON(txn, convPrefix+conv.ID, conv)
	})
	return added, err
}

// MarkConversationRead adds a receipt for reader on every message of the
// conversation that reader did not send and has not read, then resets the
// reader's unread counter to zero. Large backlogs are rewritten in several
// transactions; the counter is reset by the last one. It returns the number
// of receipts added.
func (s *Store) MarkConversationRead(ctx context.Context, convID, reader string, at time.Time) (int, error) {
	total := 0
	for {
		var marked int
		var done bool
		err := s.update(ctx, "mark_conversation_read", func(txn *badger.Txn) error {
			marked, done = 0, false
			conv, err := participantConversation(txn, convID, reader)
			if err != nil {
				return err
			}

			type pending struct {
				key []byte
				msg models.Message
			}
			var batch []pending
			err = scanPrefix(txn, msgPrefix+convID+":", false, func(item *badger.Item) (bool, error) {
				var m models.Message
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
					return false, err
				}
				if !m.UnreadFor(reader) {
					return true, nil
				}
				batch = append(batch, pending{key: item.KeyCopy(nil), msg: m})
				return len(batch) <= maxBatch, nil
			})
			if err != nil {
				return err
			}

			// One extra element means more work remains after this batch.
			done = len(batch) <= maxBatch
			if !done {
				batch = batch[:maxBatch]
			}
			for i := range batch {
				batch[i].msg.AddReceipt(reader, at)
				if err := setJSON(txn, string(batch[i].key), &batch[i].msg); err != nil {
					return err
				}
			}
			marked = len(batch)

			if done {
				conv.SetUnread(reader, 0)
				return setJSON(txn, convPrefix+conv.ID, conv)
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		total += marked
		if done {
			return total, nil
		}
	}
}

// ReconcileUnread recounts the messages userID has not sent and not read,
// stores the count as the user's counter and returns it. Running it twice
// gives the same result.
func (s *Store) ReconcileUnread(ctx context.Context, convID, userID string) (int, error) {
	var count int
	err := s.update(ctx, "reconcile_unread", func(txn *badger.Txn) error {
		count = 0
		conv, err := participantConversation(txn, convID, userID)
		if err != nil {
			return err
		}

		err = scanPrefix(txn, msgPrefix+convID+":", false, func(item *badger.Item) (bool, error) {
			var m models.Message
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
				return false, err
			}
			if m.UnreadFor(userID) {
				count++
			}
			return true, nil
		})
		if err != nil {
			return err
		}

		if cur, ok := conv.UnreadCount[userID]; ok && cur == count {
			return nil
		}
		conv.SetUnread(userID, count)
		return setJSON(txn, convPrefix+conv.ID, conv)
	})
	return count, err
}
