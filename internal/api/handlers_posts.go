// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"net/http"

	"github.com/tomtom215/socialrelay/internal/social"
)

// LikesResult is the payload of the like toggle.
type LikesResult struct {
	Likes []string `json:"likes"`
}

// BookmarksResult is the payload of the bookmark toggle.
type BookmarksResult struct {
	Bookmarks []string `json:"bookmarks"`
}

// FollowResult is the payload of follow and unfollow.
type FollowResult struct {
	UserID    string `json:"userId"`
	Following bool   `json:"following"`
}

// CreatePost stores a post by the caller.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req social.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	post, err := h.social.CreatePost(r.Context(), id.UserID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteCreated(w, r, post)
}

// GetPost returns a post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathParam(r, "postID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	post, err := h.social.GetPost(r.Context(), postID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, post)
}

// ToggleLike flips the caller's like on a post.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	postID, err := pathParam(r, "postID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	likes, err := h.social.ToggleLike(r.Context(), id.UserID, postID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, LikesResult{Likes: likes})
}

// ToggleBookmark flips the caller's bookmark on a post.
func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	postID, err := pathParam(r, "postID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	marks, err := h.social.ToggleBookmark(r.Context(), id.UserID, postID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, BookmarksResult{Bookmarks: marks})
}

// AddComment comments on a post as the caller.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	postID, err := pathParam(r, "postID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	comment, err := h.social.AddComment(r.Context(), id.UserID, postID, req.Text)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteCreated(w, r, comment)
}

// Follow makes the caller follow {userID}.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	h.follow(w, r, true)
}

// Unfollow makes the caller stop following {userID}.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.follow(w, r, false)
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request, follow bool) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	targetID, err := pathParam(r, "userID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if follow {
		err = h.social.Follow(r.Context(), id.UserID, targetID)
	} else {
		err = h.social.Unfollow(r.Context(), id.UserID, targetID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, FollowResult{UserID: targetID, Following: follow})
}
