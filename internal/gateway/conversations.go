// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"net/url"
	"time"
)

// =============================================================================
// CONVERSATION HISTORY ENDPOINTS
// =============================================================================

// ConversationSummary is one row of the server-side history list.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"lastMessage"`
	MessageCount int       `json:"messageCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ConversationMessage is one message of a fetched conversation.
type ConversationMessage struct {
	ID              string    `json:"id"`
	Sender          string    `json:"sender"`
	Text            string    `json:"text"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	IsImageAnalysis bool      `json:"isImageAnalysis,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ConversationDetail is a full conversation fetched by id.
type ConversationDetail struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Messages []ConversationMessage `json:"messages"`
}

type conversationListData struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// GetConversations fetches the user's conversation history list.
func (c *Client) GetConversations(ctx context.Context) ([]ConversationSummary, error) {
	var data conversationListData
	if err := c.get(ctx, "/chat/conversations", &data); err != nil {
		return nil, err
	}
	return data.Conversations, nil
}

// GetConversation fetches a single conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var detail ConversationDetail
	if err := c.get(ctx, "/chat/conversations/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteConversation deletes a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.delete(ctx, "/chat/conversations/"+url.PathEscape(id))
}
