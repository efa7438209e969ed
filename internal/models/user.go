// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package models

import "time"

// DefaultAvatar is used for users whose token carries no avatar.
const DefaultAvatar = "/default-avatar.png"

// User is a registered account. Signup and profile editing live elsewhere;
// this service only keeps the fields it needs for enrichment.
type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	FullName  string    `json:"fullName"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the enrichment shape of the user.
func (u *User) Summary() UserSummary {
	avatar := u.Avatar
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return UserSummary{
		ID:       u.ID,
		UserName: u.UserName,
		FullName: u.FullName,
		Avatar:   avatar,
	}
}

// UserSummary is attached to messages, notifications and comments in place
// of a bare user id.
type UserSummary struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// UnknownUser is the summary used when a referenced user no longer exists.
func UnknownUser(id string) UserSummary {
	return UserSummary{ID: id, Avatar: DefaultAvatar}
}
