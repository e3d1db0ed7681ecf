// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message log for one chat session.
//
// ID is assigned by the gateway on the first successful send and is empty
// before that. Once set it is never reassigned for the life of the session;
// switching conversations replaces the Conversation value wholesale.
type Conversation struct {
	// Identity
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages, in chronological order. Append-only.
	Messages []*Message `json:"messages"`
}

// NewConversation creates an empty conversation with no server id.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the log.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(text string) *Message {
	msg := NewUserMessage(text)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an assistant message.
func (c *Conversation) AddAssistantMessage(text string) *Message {
	msg := NewAssistantMessage(text)
	c.AddMessage(msg)
	return msg
}

// AddErrorMessage creates and appends a synthetic error message.
func (c *Conversation) AddErrorMessage(text string) *Message {
	msg := NewErrorMessage(text)
	c.AddMessage(msg)
	return msg
}

// Replace swaps the message log wholesale with an externally supplied,
// already-ordered list. Used when loading a persisted conversation; it
// bypasses incremental append on purpose.
func (c *Conversation) Replace(id string, messages []*Message) {
	c.ID = id
	c.Messages = make([]*Message, len(messages))
	copy(c.Messages, messages)
	c.UpdatedAt = time.Now()
}

// AdoptID records the gateway-assigned conversation id. First writer wins:
// an id already held is never overwritten mid-session.
func (c *Conversation) AdoptID(id string) {
	if c.ID == "" && id != "" {
		c.ID = id
	}
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastUserMessage returns the most recent user message, or nil.
func (c *Conversation) GetLastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastAssistantMessage returns the most recent assistant message, or nil.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Clear resets the log and the conversation id.
func (c *Conversation) Clear() {
	c.ID = ""
	c.Messages = make([]*Message, 0)
	c.UpdatedAt = time.Now()
}

// =============================================================================
// PREVIEW / METADATA
// =============================================================================

// Preview returns a short preview of the conversation for list display,
// taken from the first user message.
func (c *Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && !msg.IsEmpty() {
			return msg.Preview(80)
		}
	}
	return "Empty conversation"
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}
