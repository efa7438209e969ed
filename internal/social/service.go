// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package social implements the post and follow actions that produce
// notifications and live post updates.
package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

// Store is the persistence Service needs. *store.Store implements it.
type Store interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, bool, error)
	TogglePostBookmark(ctx context.Context, postID, userID string) (*models.Post, bool, error)
	AddPostComment(ctx context.Context, postID string, c models.Comment) (*models.Post, error)
	Follow(ctx context.Context, userID, targetID string) error
	Unfollow(ctx context.Context, userID, targetID string) error
	UserSummaries(ctx context.Context, ids ...string) (map[string]models.UserSummary, error)
}

// Notifier creates notifications. *notify.Fanout implements it.
type Notifier interface {
	Notify(ctx context.Context, recipient, actor string, kind models.NotificationKind, message, postID string) (*models.NotificationView, error)
}

// Router delivers events to rooms. *websocket.Hub implements it.
type Router interface {
	Deliver(room string, evt websocket.Event) int
}

// Post update actions.
const (
	ActionLike       = "like"
	ActionUnlike     = "unlike"
	ActionBookmark   = "bookmark"
	ActionUnbookmark = "unbookmark"
	ActionAdd        = "add"
)

// PostLikeUpdate is the payload of post_like_update.
type PostLikeUpdate struct {
	PostID string   `json:"postId"`
	Likes  []string `json:"likes"`
	Action string   `json:"action"`
	UserID string   `json:"userId"`
}

// PostBookmarkUpdate is the payload of post_bookmark_update.
type PostBookmarkUpdate struct {
	PostID    string   `json:"postId"`
	Bookmarks []string `json:"bookmarks"`
	Action    string   `json:"action"`
	UserID    string   `json:"userId"`
}

// PostCommentUpdate is the payload of post_comment_update.
type PostCommentUpdate struct {
	PostID  string             `json:"postId"`
	Comment models.CommentView `json:"comment"`
	Action  string             `json:"action"`
	UserID  string             `json:"userId"`
}

// CreatePostRequest carries a new post. The media URL comes from the
// external upload service; a post needs text, media or both.
type CreatePostRequest struct {
	Text      string `json:"text" validate:"required_without=MediaURL,max=5000"`
	MediaURL  string `json:"mediaUrl" validate:"required_with=MediaType,omitempty,url"`
	MediaType string `json:"mediaType" validate:"required_with=MediaURL,omitempty,oneof=image video"`
}

// Service implements likes, bookmarks, comments and follows.
type Service struct {
	store        Store
	notifier     Notifier
	router       Router
	storeTimeout time.Duration
	now          func() time.Time
}

// NewService creates a Service. A zero storeTimeout means five seconds.
func NewService(store Store, notifier Notifier, router Router, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		store:        store,
		notifier:     notifier,
		router:       router,
		storeTimeout: storeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost validates and stores a post by author.
func (s *Service) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*models.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	p := &models.Post{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Text:      req.Text,
		MediaURL:  req.MediaURL,
		MediaType: models.MediaType(req.MediaType),
		Likes:     []string{},
		Bookmarks: []string{},
		Comments:  []models.Comment{},
		CreatedAt: s.now(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.CreatePost(sctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost returns a post or ErrNotFound.
func (s *Service) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.GetPost(sctx, postID)
}

// ToggleLike flips the user's like on a post and returns the resulting like
// set. Liking someone else's post notifies its author.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) ([]string, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	p, liked, err := s.store.TogglePostLike(sctx, postID, userID)
	if err != nil {
		return nil, err
	}

	action := ActionUnlike
	if liked {
		action = ActionLike
		s.notify(ctx, p.UserID, userID, models.KindLike, "liked your post", p.ID)
	}
	s.router.Deliver(websocket.PostRoom(p.ID), websocket.Event{
		Type: websocket.EventPostLikeUpdate,
		Data: PostLikeUpdate{PostID: p.ID, Likes: p.Likes, Action: action, UserID: userID},
	})
	return p.Likes, nil
}

// ToggleBookmark flips the user's bookmark and returns the bookmark set.
// Bookmarks are private and notify nobody.
func (s *Service) ToggleBookmark(ctx context.Context, userID, postID string) ([]string, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	p, marked, err := s.store.TogglePostBookmark(sctx, postID, userID)
	if err != nil {
		return nil, err
	}

	action := ActionUnbookmark
	if marked {
		action = ActionBookmark
	}
	s.router.Deliver(websocket.PostRoom(p.ID), websocket.Event{
		Type: websocket.EventPostBookmarkUpdate,
		Data: PostBookmarkUpdate{PostID: p.ID, Bookmarks: p.Bookmarks, Action: action, UserID: userID},
	})
	return p.Bookmarks, nil
}

// AddComment appends a comment and returns it enriched with its author.
func (s *Service) AddComment(ctx context.Context, userID, postID, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if err := validation.Var("text", text, "notblank,max=2000"); err != nil {
		return nil, err
	}

	c := models.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	p, err := s.store.AddPostComment(sctx, postID, c)
	if err != nil {
		return nil, err
	}

	view := models.CommentView{
		ID:        c.ID,
		User:      s.summary(sctx, userID),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	s.notify(ctx, p.UserID, userID, models.KindComment, "commented on your post", p.ID)
	s.router.Deliver(websocket.PostRoom(p.ID), websocket.Event{
		Type: websocket.EventPostCommentUpdate,
		Data: PostCommentUpdate{PostID: p.ID, Comment: view, Action: ActionAdd, UserID: userID},
	})
	return &view, nil
}

// Follow makes userID follow targetID and notifies the target.
func (s *Service) Follow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", models.ErrValidation)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Follow(sctx, userID, targetID); err != nil {
		return err
	}

	name := s.summary(sctx, userID).UserName
	if name == "" {
		name = userID
	}
	s.notify(ctx, targetID, userID, models.KindFollow, name+" started following you", "")
	return nil
}

// Unfollow removes the follow edge. Unfollowing someone you do not follow
// succeeds.
func (s *Service) Unfollow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot unfollow yourself", models.ErrValidation)
	}
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Unfollow(sctx, userID, targetID)
}

// notify creates a notification after the action has been persisted; its
// failure is logged and never undoes the action.
func (s *Service) notify(ctx context.Context, recipient, actor string, kind models.NotificationKind, message, postID string) {
	if _, err := s.notifier.Notify(ctx, recipient, actor, kind, message, postID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("recipient", recipient).
			Str("kind", string(kind)).
			Msg("notification failed")
	}
}

func (s *Service) summary(ctx context.Context, userID string) models.UserSummary {
	users, err := s.store.UserSummaries(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("user enrichment failed")
	}
	if u, ok := users[userID]; ok {
		return u
	}
	return models.UnknownUser(userID)
}
