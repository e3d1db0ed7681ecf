// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the MediGuide TUI.
//
// This file defines all Bubble Tea message types used by the chat interface:
//   - Send: completion of text and image sends
//   - Session: expiry signal surfaced to the root model
//   - Panels: history, specialist, and feed data loads
//   - Persistence: conversation save confirmations
package chat

import (
	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendCompleteMsg signals that a text or image send finished. Reply is nil
// when the completion was discarded (stale epoch) or the send failed; the
// session manager has already appended any error bubble to the transcript.
type SendCompleteMsg struct {
	Reply     *model.Message
	FromImage bool
	Err       error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionExpiredMsg signals that the backend rejected the stored token.
// The root model clears credentials and returns to the login screen.
type SessionExpiredMsg struct{}

// LogoutMsg signals an explicit user logout. The root model clears
// credentials and returns to the login screen.
type LogoutMsg struct{}

// =============================================================================
// IMAGE ATTACHMENT MESSAGES
// =============================================================================

// ImageAttachedMsg delivers a validated image attachment, or the validation
// error (too large, not an image, unreadable).
type ImageAttachedMsg struct {
	Image *upload.Image
	Err   error
}

// =============================================================================
// PANEL DATA MESSAGES
// =============================================================================

// HistoryLoadedMsg delivers the conversation list. FromCache is true when
// the backend was unreachable and the local cache served instead.
type HistoryLoadedMsg struct {
	Metas     []storage.ConversationMeta
	FromCache bool
	Err       error
}

// ConversationLoadedMsg delivers a conversation picked from history.
type ConversationLoadedMsg struct {
	Conversation *storage.StoredConversation
	Err          error
}

// SpecialistsLoadedMsg delivers the browsable specialist directory.
type SpecialistsLoadedMsg struct {
	Specialists []gateway.Specialist
	Err         error
}

// FeedLoadedMsg delivers health feed articles. FromCache is true when the
// backend was unreachable and the local cache served instead.
type FeedLoadedMsg struct {
	Articles  []gateway.Article
	FromCache bool
	Err       error
}

// ArticleSavedMsg confirms bookmarking an article.
type ArticleSavedMsg struct {
	ID  string
	Err error
}

// ArticleSharedMsg confirms sharing an article.
type ArticleSharedMsg struct {
	ID  string
	Err error
}

// ConversationDeletedMsg confirms deleting a conversation on the server and
// in the local cache.
type ConversationDeletedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// PERSISTENCE MESSAGES
// =============================================================================

// ConversationSavedMsg confirms the transcript was cached locally.
type ConversationSavedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// StatusMsg shows a transient notice in the status area.
type StatusMsg struct {
	Text string
}
