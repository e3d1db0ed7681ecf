// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"time"
)

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// AIMessage is the assistant reply inside a send response.
type AIMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SendResponse is the payload of a successful text or image send.
type SendResponse struct {
	// ConversationID identifies the conversation this exchange belongs to.
	// The server assigns one on the first send of a new conversation.
	ConversationID string `json:"conversationId"`

	// AIMessage is the assistant's reply.
	AIMessage AIMessage `json:"aiMessage"`

	// NeedsSpecialist signals that the reply suggests professional care.
	NeedsSpecialist bool `json:"needsSpecialist"`

	// ExtractedTopics are health topics the server detected in the exchange.
	ExtractedTopics []string `json:"extractedTopics"`
}

type sendRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// SendMessage sends a text message. conversationID may be empty for the
// first message of a new conversation.
func (c *Client) SendMessage(ctx context.Context, message, conversationID string) (*SendResponse, error) {
	var resp SendResponse
	err := c.postJSON(ctx, "/chat/send", sendRequest{
		Message:        message,
		ConversationID: conversationID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessageWithImage sends a message with an attached image as multipart
// form data. message may be empty; the image alone is a valid send.
func (c *Client) SendMessageWithImage(ctx context.Context, message, conversationID, fileName, fileMIME string, image []byte) (*SendResponse, error) {
	fields := map[string]string{
		"message":        message,
		"conversationId": conversationID,
	}
	file := multipartFile{
		Field: "image",
		Name:  fileName,
		MIME:  fileMIME,
		Data:  image,
	}

	var resp SendResponse
	if err := c.postMultipart(ctx, "/chat/send-image", fields, file, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
