// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package models

import (
	"slices"
	"time"
)

// MediaType classifies post media.
type MediaType string

// Post media types.
const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Comment is a reply on a post.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentView is a comment with its author expanded.
type CommentView struct {
	ID        string      `json:"id"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Post is a piece of user content that can be liked, bookmarked and
// commented on. Media bytes are stored by an external collaborator; the post
// only keeps the resulting URL.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text,omitempty"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	MediaType MediaType `json:"mediaType,omitempty"`
	Likes     []string  `json:"likes"`
	Bookmarks []string  `json:"bookmarks"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToggleLike adds or removes userID from the like set and reports whether
// the user now likes the post.
func (p *Post) ToggleLike(userID string) bool {
	var liked bool
	p.Likes, liked = toggle(p.Likes, userID)
	return liked
}

// ToggleBookmark adds or removes userID from the bookmark set and reports
// whether the post is now bookmarked by the user.
func (p *Post) ToggleBookmark(userID string) bool {
	var marked bool
	p.Bookmarks, marked = toggle(p.Bookmarks, userID)
	return marked
}

func toggle(set []string, id string) ([]string, bool) {
	if i := slices.Index(set, id); i >= 0 {
		return slices.Delete(set, i, i+1), false
	}
	return append(set, id), true
}
