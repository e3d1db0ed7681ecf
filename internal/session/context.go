// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
)

// synthesizeContextLocked builds the conversation-context string sent to the
// specialist recommendation service. Caller holds m.mu.
//
// The primary form joins every non-empty message text with ". ". When that
// comes out shorter than the minimum threshold (a one-word opener, say), it
// falls back to the latest user text plus a prefix of the latest assistant
// reply, so the recommendation service never sees near-empty context.
func (m *Manager) synthesizeContextLocked() string {
	parts := make([]string, 0, len(m.conv.Messages))
	for _, msg := range m.conv.Messages {
		text := strings.TrimSpace(msg.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	joined := strings.Join(parts, ". ")

	if len(joined) >= m.minContextChars {
		return joined
	}

	var userText, replyText string
	if msg := m.conv.GetLastUserMessage(); msg != nil {
		userText = strings.TrimSpace(msg.Text)
	}
	if msg := m.conv.GetLastAssistantMessage(); msg != nil {
		replyText = strings.TrimSpace(msg.Text)
	}
	if runes := []rune(replyText); len(runes) > m.contextReplyPrefix {
		replyText = string(runes[:m.contextReplyPrefix])
	}

	if userText == "" {
		return replyText
	}
	if replyText == "" {
		return userText
	}
	return userText + ". " + replyText
}
