// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/tomtom215/socialrelay/internal/metrics"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
)

// EnsureUser creates the user record or refreshes its profile fields. The
// id and creation time of an existing user never change.
func (s *Store) EnsureUser(ctx context.Context, u models.User) error {
	if err := validation.UserID(u.ID); err != nil {
		return err
	}
	want := u.Summary()
	if cached, ok := s.users.Get(u.ID); ok && cached == want {
		return nil
	}

	now := time.Now().UTC()
	err := s.update(ctx, "ensure_user", func(txn *badger.Txn) error {
		var existing models.User
		err := getJSON(txn, userPrefix+u.ID, &existing)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			u.CreatedAt = now
		case err != nil:
			return err
		default:
			if existing.Summary() == want {
				return nil
			}
			u.CreatedAt = existing.CreatedAt
		}
		u.Avatar = want.Avatar
		u.UpdatedAt = now
		return setJSON(txn, userPrefix+u.ID, &u)
	})
	if err != nil {
		return err
	}
	s.users.Add(u.ID, want)
	return nil
}

// GetUser returns the user with id or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.view(ctx, "get_user", func(txn *badger.Txn) error {
		err := getJSON(txn, userPrefix+id, &u)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound("user", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserSummaries resolves ids to summaries, serving repeats from the cache.
// Ids without a user record resolve to models.UnknownUser.
func (s *Store) UserSummaries(ctx context.Context, ids ...string) (map[string]models.UserSummary, error) {
	ids = lo.Uniq(lo.Compact(ids))
	out := make(map[string]models.UserSummary, len(ids))

	var missing []string
	for _, id := range ids {
		if sum, ok := s.users.Get(id); ok {
			metrics.RecordUserCacheLookup(true)
			out[id] = sum
			continue
		}
		metrics.RecordUserCacheLookup(false)
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	err := s.view(ctx, "user_summaries", func(txn *badger.Txn) error {
		for _, id := range missing {
			var u models.User
			err := getJSON(txn, userPrefix+id, &u)
			if errors.Is(err, badger.ErrKeyNotFound) {
				out[id] = models.UnknownUser(id)
				continue
			}
			if err != nil {
				return err
			}
			out[id] = u.Summary()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range missing {
		if sum := out[id]; sum.UserName != "" || sum.FullName != "" {
			s.users.Add(id, sum)
		}
	}
	return out, nil
}

// Follow records that userID follows targetID. Following an unknown user
// returns ErrNotFound, following twice returns ErrConflict.
func (s *Store) Follow(ctx context.Context, userID, targetID string) error {
	return s.update(ctx, "follow", func(txn *badger.Txn) error {
		ok, err := exists(txn, userPrefix+targetID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("user", targetID)
		}

		edge := followingPrefix + userID + ":" + targetID
		already, err := exists(txn, edge)
		if err != nil {
			return err
		}
		if already {
			return fmt.Errorf("%w: already following %s", models.ErrConflict, targetID)
		}

		if err := txn.Set([]byte(edge), nil); err != nil {
			return err
		}
		return txn.Set([]byte(followerPrefix+targetID+":"+userID), nil)
	})
}

// Unfollow removes the follow edge. It is idempotent for known targets.
func (s *Store) Unfollow(ctx context.Context, userID, targetID string) error {
	return s.update(ctx, "unfollow", func(txn *badger.Txn) error {
		ok, err := exists(txn, userPrefix+targetID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("user", targetID)
		}
		if err := txn.Delete([]byte(followingPrefix + userID + ":" + targetID)); err != nil {
			return err
		}
		return txn.Delete([]byte(followerPrefix + targetID + ":" + userID))
	})
}

// IsFollowing reports whether userID follows targetID.
func (s *Store) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	var ok bool
	err := s.view(ctx, "is_following", func(txn *badger.Txn) error {
		var err error
		ok, err = exists(txn, followingPrefix+userID+":"+targetID)
		return err
	})
	return ok, err
}

// Followers returns the ids of users following userID.
func (s *Store) Followers(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.view(ctx, "followers", func(txn *badger.Txn) error {
		prefix := followerPrefix + userID + ":"
		return scanPrefix(txn, prefix, false, func(item *badger.Item) (bool, error) {
			ids = append(ids, strings.TrimPrefix(string(item.Key()), prefix))
			return true, nil
		})
	})
	return ids, err
}
