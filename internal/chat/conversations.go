// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
)

// ConversationList is the inbox of one user.
type ConversationList struct {
	Conversations []models.ConversationView `json:"conversations"`
	UnreadCounts  map[string]int            `json:"unreadCounts"`
}

// CreateConversation returns the conversation between requester and other,
// creating it on first contact. Both argument orders yield the same
// conversation.
func (e *Engine) CreateConversation(ctx context.Context, requesterID, otherID string) (*models.ConversationView, error) {
	switch {
	case otherID == "":
		return nil, fmt.Errorf("%w: participantId is required", models.ErrValidation)
	case otherID == requesterID:
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", models.ErrValidation)
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	conv, created, err := e.store.CreateOrGetConversation(sctx, requesterID, otherID)
	if err != nil {
		return nil, err
	}
	if created {
		logging.Ctx(ctx).Info().
			Str("conversation_id", conv.ID).
			Msg("conversation created")
	}

	views, err := e.enrich(sctx, []models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListConversations returns the user's conversations, most recently active
// first, with the user's unread counter for each.
func (e *Engine) ListConversations(ctx context.Context, userID string) (*ConversationList, error) {
	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	convs, err := e.store.ListConversations(sctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := e.enrich(sctx, convs)
	if err != nil {
		return nil, err
	}

	unread := make(map[string]int, len(convs))
	for i := range convs {
		unread[convs[i].ID] = convs[i].Unread(userID)
	}
	return &ConversationList{Conversations: views, UnreadCounts: unread}, nil
}

// IsParticipant reports whether userID takes part in the conversation. An
// unknown conversation returns ErrNotFound.
func (e *Engine) IsParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	conv, err := e.store.GetConversation(sctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

// enrich expands participants and last messages with one summary lookup and
// one message lookup for the whole batch.
func (e *Engine) enrich(ctx context.Context, convs []models.Conversation) ([]models.ConversationView, error) {
	lastIDs := lo.Compact(lo.Map(convs, func(c models.Conversation, _ int) string { return c.LastMessage }))
	last, err := e.store.GetMessages(ctx, lastIDs...)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	userIDs := lo.FlatMap(convs, func(c models.Conversation, _ int) []string { return c.Participants })
	for _, m := range last {
		userIDs = append(userIDs, m.Sender)
	}
	users := e.summaries(ctx, lo.Uniq(userIDs)...)

	views := make([]models.ConversationView, len(convs))
	for i, c := range convs {
		view := models.ConversationView{
			ID: c.ID,
			Participants: lo.Map(c.Participants, func(id string, _ int) models.UserSummary {
				return users[id]
			}),
			UnreadCount: lo.Assign(map[string]int{}, c.UnreadCount),
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
		if m, ok := last[c.LastMessage]; ok {
			mv := models.NewMessageView(&m, users[m.Sender])
			view.LastMessage = &mv
		}
		views[i] = view
	}
	return views, nil
}
