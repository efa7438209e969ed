// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
)

// CreateNotification persists n under its recipient.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := validation.UserID(n.Recipient); err != nil {
		return err
	}
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	key := notifPrefix + n.Recipient + ":" + seq

	return s.update(ctx, "create_notification", func(txn *badger.Txn) error {
		if err := setJSON(txn, key, n); err != nil {
			return err
		}
		return txn.Set([]byte(notifIDPrefix+n.ID), []byte(key))
	})
}

// ListNotifications returns at most limit notifications of recipient,
// newest first. Records are matched on their recipient field, not only on the
// key prefix.
func (s *Store) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	out := make([]models.Notification, 0, max(limit, 0))
	if limit <= 0 {
		return out, nil
	}
	err := s.view(ctx, "list_notifications", func(txn *badger.Txn) error {
		return scanPrefix(txn, notifPrefix+recipient+":", true, func(item *badger.Item) (bool, error) {
			var n models.Notification
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				return false, err
			}
			if n.Recipient != recipient {
				return true, nil
			}
			out = append(out, n)
			return len(out) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead sets isRead on a notification owned by recipient.
// Notifications of other users are reported as not found.
func (s *Store) MarkNotificationRead(ctx context.Context, recipient, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.update(ctx, "mark_notification_read", func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(notifIDPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound("notification", id)
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		key := string(raw)
		if err := getJSON(txn, key, &n); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return notFound("notification", id)
			}
			return err
		}
		if n.Recipient != recipient {
			return notFound("notification", id)
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		return setJSON(txn, key, &n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification of recipient as
// read and returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipient string) (int, error) {
	total := 0
	for {
		var marked int
		err := s.update(ctx, "mark_all_notifications_read", func(txn *badger.Txn) error {
			marked = 0
			type pending struct {
				key []byte
				n   models.Notification
			}
			var batch []pending
			err := scanPrefix(txn, notifPrefix+recipient+":", false, func(item *badger.Item) (bool, error) {
				var n models.Notification
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
					return false, err
				}
				if !n.IsRead && n.Recipient == recipient {
					batch = append(batch, pending{key: item.KeyCopy(nil), n: n})
				}
				return len(batch) < maxBatch, nil
			})
			if err != nil {
				return err
			}
			for i := range batch {
				batch[i].n.IsRead = true
				if err := setJSON(txn, string(batch[i].key), &batch[i].n); err != nil {
					return err
				}
			}
			marked = len(batch)
			return nil
		})
		if err != nil {
			return total, err
		}
		total += marked
		if marked < maxBatch {
			return total, nil
		}
	}
}
