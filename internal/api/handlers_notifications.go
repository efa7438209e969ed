// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"net/http"

	"github.com/tomtom215/socialrelay/internal/validation"
)

// MarkAllReadResult is the payload of PUT /notifications/read-all.
type MarkAllReadResult struct {
	Updated int `json:"updated"`
}

// ListNotifications returns the caller's newest notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req := ListNotificationsRequest{Limit: limit}
	if err := validation.Struct(&req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	list, err := h.notifications.List(r.Context(), id.UserID, req.Limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// MarkNotificationRead marks one of the caller's notifications read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	notificationID, err := pathParam(r, "notificationID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), id.UserID, notificationID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, n)
}

// MarkAllNotificationsRead marks every notification of the caller read.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, MarkAllReadResult{Updated: n})
}
