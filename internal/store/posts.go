// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/socialrelay/internal/models"
)

// CreatePost persists a new post.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	return s.update(ctx, "create_post", func(txn *badger.Txn) error {
		return setJSON(txn, postPrefix+p.ID, p)
	})
}

func getPost(txn *badger.Txn, id string) (*models.Post, error) {
	var p models.Post
	err := getJSON(txn, postPrefix+id, &p)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound("post", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPost returns the post with id or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p *models.Post
	err := s.view(ctx, "get_post", func(txn *badger.Txn) error {
		var err error
		p, err = getPost(txn, id)
		return err
	})
	return p, err
}

// PostRefs resolves post ids to the reference shown next to notifications.
// Unknown posts are left out.
func (s *Store) PostRefs(ctx context.Context, ids ...string) (map[string]models.PostRef, error) {
	out := make(map[string]models.PostRef, len(ids))
	err := s.view(ctx, "post_refs", func(txn *badger.Txn) error {
		for _, id := range ids {
			if id == "" {
				continue
			}
			p, err := getPost(txn, id)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = models.PostRef{ID: p.ID, MediaURL: p.MediaURL}
		}
		return nil
	})
	return out, err
}

// UpdatePost applies fn to the stored post and writes the result in one
// transaction. fn may run more than once when the transaction is retried,
// so it must derive everything from the post it is given.
func (s *Store) UpdatePost(ctx context.Context, id string, fn func(p *models.Post) error) (*models.Post, error) {
	var p *models.Post
	err := s.update(ctx, "update_post", func(txn *badger.Txn) error {
		var err error
		if p, err = getPost(txn, id); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		return setJSON(txn, postPrefix+p.ID, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TogglePostLike flips userID's like and reports whether the post is now liked.
func (s *Store) TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	var liked bool
	p, err := s.UpdatePost(ctx, postID, func(p *models.Post) error {
		liked = p.ToggleLike(userID)
		return nil
	})
	return p, liked, err
}

// TogglePostBookmark flips userID's bookmark and reports whether the post is
// now bookmarked.
func (s *Store) TogglePostBookmark(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	var marked bool
	p, err := s.UpdatePost(ctx, postID, func(p *models.Post) error {
		marked = p.ToggleBookmark(userID)
		return nil
	})
	return p, marked, err
}

// AddPostComment appends c to the post's comments.
func (s *Store) AddPostComment(ctx context.Context, postID string, c models.Comment) (*models.Post, error) {
	return s.UpdatePost(ctx, postID, func(p *models.Post) error {
		p.Comments = append(p.Comments, c)
		return nil
	})
}
