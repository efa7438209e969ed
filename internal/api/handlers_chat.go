// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"net/http"

	"github.com/tomtom215/socialrelay/internal/validation"
)

// ListConversations returns the caller's conversations and unread counts.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	list, err := h.chat.ListConversations(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// CreateConversation returns the conversation between the caller and
// participantId, creating it on first contact.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	conv, err := h.chat.CreateConversation(r.Context(), id.UserID, req.ParticipantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, conv)
}

// ListMessages returns one page of a conversation, oldest first, and marks
// it read for the caller.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	convID, err := pathParam(r, "conversationID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	page, err := intQuery(r, "page", 1)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req := ListMessagesRequest{Page: page}
	if err := validation.Struct(&req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.chat.ListMessages(r.Context(), id.UserID, convID, req.Page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, result)
}
