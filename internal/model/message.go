// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the author of a message. A message is authored by exactly
// one of the two parties; there is no shared authorship.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "MediBot"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text string `json:"text"`

	// ImageURL is set when the message carries an attached image. For user
	// messages it is a locally created preview reference; for assistant
	// messages it is a server-provided reference.
	ImageURL string `json:"imageUrl,omitempty"`

	// IsError marks a synthetic assistant message describing a failed send.
	IsError bool `json:"isError,omitempty"`

	// IsImageAnalysis marks an assistant reply derived from image input.
	IsImageAnalysis bool `json:"isImageAnalysis,omitempty"`
}

// NewMessage creates a new message with a locally generated id and the
// current time. The gateway may later supply its own id via AdoptServerID.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message {
	return NewMessage(RoleUser, text)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(text string) *Message {
	return NewMessage(RoleAssistant, text)
}

// NewErrorMessage creates a synthetic assistant message describing a failure.
func NewErrorMessage(text string) *Message {
	msg := NewMessage(RoleAssistant, text)
	msg.IsError = true
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AdoptServerID replaces the locally assigned id with the server's, when the
// server supplies one. This is enrichment, not mutation of content.
func (m *Message) AdoptServerID(id string) {
	if id != "" {
		m.ID = id
	}
}

// IsUser reports whether the message was authored by the user.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// HasImage reports whether the message carries an attached image.
func (m *Message) HasImage() bool {
	return m.ImageURL != ""
}

// IsEmpty returns true if the message has no text content.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// Preview returns a truncated single-line preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	text := strings.ReplaceAll(m.Text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
