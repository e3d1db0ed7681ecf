// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the MediGuide TUI.
package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// sendTimeout bounds a single send round-trip, including the secondary topic
// and recommendation calls the session manager makes after the reply lands.
const sendTimeout = 90 * time.Second

// =============================================================================
// SEND COMMANDS
// =============================================================================

// sendTextCmd sends a text message through the session manager.
func (m Model) sendTextCmd(text string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		reply, err := sess.SendText(ctx, text)
		if errors.Is(err, gateway.ErrSessionExpired) {
			return SessionExpiredMsg{}
		}
		return SendCompleteMsg{Reply: reply, Err: err}
	}
}

// sendImageCmd sends an image (with optional caption) through the session
// manager.
func (m Model) sendImageCmd(text string, img *upload.Image) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		reply, err := sess.SendImage(ctx, text, img)
		if errors.Is(err, gateway.ErrSessionExpired) {
			return SessionExpiredMsg{}
		}
		return SendCompleteMsg{Reply: reply, FromImage: true, Err: err}
	}
}

// attachImageCmd validates and loads an image from disk.
func (m Model) attachImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := upload.Open(path)
		return ImageAttachedMsg{Image: img, Err: err}
	}
}

// =============================================================================
// PANEL DATA COMMANDS
// =============================================================================

// loadHistoryCmd lists the user's conversations. The server list comes
// first; conversations that only exist locally (offline sends) are appended.
// When the backend is unreachable the local cache serves the whole list.
func (m Model) loadHistoryCmd() tea.Cmd {
	backend := m.backend
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		summaries, err := backend.GetConversations(ctx)
		if errors.Is(err, gateway.ErrSessionExpired) {
			return SessionExpiredMsg{}
		}
		if err != nil {
			metas, localErr := store.List()
			if localErr != nil {
				return HistoryLoadedMsg{Err: err}
			}
			return HistoryLoadedMsg{Metas: metas, FromCache: true}
		}

		metas := metasFromSummaries(summaries)
		seen := make(map[string]bool, len(metas))
		for _, meta := range metas {
			seen[meta.ID] = true
		}
		if local, localErr := store.List(); localErr == nil {
			for _, meta := range local {
				if !seen[meta.ID] {
					metas = append(metas, meta)
				}
			}
		}
		return HistoryLoadedMsg{Metas: metas}
	}
}

// metasFromSummaries converts server history rows to the panel's list type.
func metasFromSummaries(summaries []gateway.ConversationSummary) []storage.ConversationMeta {
	metas := make([]storage.ConversationMeta, 0, len(summaries))
	for _, s := range summaries {
		metas = append(metas, storage.ConversationMeta{
			ID:           s.ID,
			Title:        s.Title,
			UpdatedAt:    s.UpdatedAt,
			MessageCount: s.MessageCount,
			Preview:      s.LastMessage,
		})
	}
	return metas
}

// loadConversationCmd fetches a conversation for resuming. Server-assigned
// ids are fetched from the backend; local-only ids, or any fetch failure,
// fall back to the local cache.
func (m Model) loadConversationCmd(id string) tea.Cmd {
	backend := m.backend
	store := m.store
	return func() tea.Msg {
		if !storage.IsLocalID(id) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			detail, err := backend.GetConversation(ctx, id)
			if errors.Is(err, gateway.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			if err == nil && detail != nil {
				return ConversationLoadedMsg{Conversation: storedFromDetail(detail)}
			}
		}

		conv, err := store.Load(id)
		return ConversationLoadedMsg{Conversation: conv, Err: err}
	}
}

// storedFromDetail converts a fetched conversation to the stored shape the
// session resumes from.
func storedFromDetail(detail *gateway.ConversationDetail) *storage.StoredConversation {
	messages := make([]*model.Message, 0, len(detail.Messages))
	for _, cm := range detail.Messages {
		role := model.RoleAssistant
		if cm.Sender == "user" {
			role = model.RoleUser
		}
		messages = append(messages, &model.Message{
			ID:              cm.ID,
			Role:            role,
			Text:            cm.Text,
			ImageURL:        cm.ImageURL,
			IsImageAnalysis: cm.IsImageAnalysis,
			Timestamp:       cm.Timestamp,
		})
	}
	return &storage.StoredConversation{
		ID:       detail.ID,
		Title:    detail.Title,
		Messages: messages,
	}
}

// loadSpecialistsCmd fetches the specialist directory.
func (m Model) loadSpecialistsCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		specialists, err := backend.GetAllSpecialists(ctx)
		return SpecialistsLoadedMsg{Specialists: specialists, Err: err}
	}
}

// loadFeedCmd fetches health feed articles, falling back to the local cache
// when the backend is unreachable. Fresh articles refresh the cache. When the
// topic history has entries, the fetch targets those topics instead of the
// server-side personalization.
func (m Model) loadFeedCmd() tea.Cmd {
	backend := m.backend
	cache := m.feedCache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var articles []gateway.Article
		var err error
		var topics []string
		if cache != nil {
			topics, _ = cache.RecentTopics(5)
		}
		if len(topics) > 0 {
			articles, err = backend.GetFeedByTopics(ctx, topics)
		} else {
			articles, err = backend.GetPersonalizedFeed(ctx)
		}
		if err == nil {
			if cache != nil {
				_ = cache.PutArticles(articles)
			}
			return FeedLoadedMsg{Articles: articles}
		}

		if errors.Is(err, gateway.ErrSessionExpired) {
			return SessionExpiredMsg{}
		}

		if cache != nil {
			cached, cacheErr := cache.Articles(50)
			if cacheErr == nil && len(cached) > 0 {
				return FeedLoadedMsg{Articles: cached, FromCache: true}
			}
		}
		return FeedLoadedMsg{Err: err}
	}
}

// saveArticleCmd bookmarks an article on the backend and mirrors the flag
// locally.
func (m Model) saveArticleCmd(id string) tea.Cmd {
	backend := m.backend
	cache := m.feedCache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := backend.SaveArticle(ctx, id)
		if err == nil && cache != nil {
			_ = cache.MarkSaved(id)
		}
		return ArticleSavedMsg{ID: id, Err: err}
	}
}

// shareArticleCmd shares an article through the backend.
func (m Model) shareArticleCmd(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return ArticleSharedMsg{ID: id, Err: backend.ShareArticle(ctx, id)}
	}
}

// deleteConversationCmd removes a conversation on the server and mirrors the
// delete into the local cache. Local-only conversations skip the server call.
func (m Model) deleteConversationCmd(id string) tea.Cmd {
	backend := m.backend
	store := m.store
	return func() tea.Msg {
		if !storage.IsLocalID(id) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			err := backend.DeleteConversation(ctx, id)
			if errors.Is(err, gateway.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			if err != nil {
				return ConversationDeletedMsg{ID: id, Err: err}
			}
		}

		err := store.Delete(id)
		if errors.Is(err, storage.ErrConversationNotFound) {
			// Never cached locally; the server delete already succeeded.
			err = nil
		}
		return ConversationDeletedMsg{ID: id, Err: err}
	}
}

// recordTopicsCmd appends newly extracted topics to the feed cache's topic
// history so the feed can target them.
func (m Model) recordTopicsCmd(topics []string) tea.Cmd {
	cache := m.feedCache
	logger := m.logger
	return func() tea.Msg {
		if err := cache.RecordTopics(topics, "chat"); err != nil {
			logger.Warn("topic history record failed", zap.Error(err))
		}
		return nil
	}
}

// =============================================================================
// PERSISTENCE COMMANDS
// =============================================================================

// saveConversationCmd caches the current transcript locally.
func (m Model) saveConversationCmd() tea.Cmd {
	store := m.store
	sess := m.session

	messages := sess.Messages()
	if len(messages) == 0 {
		return nil
	}
	conv := &storage.StoredConversation{
		ID:       sess.ConversationID(),
		Messages: messages,
		Topics:   sess.Topics(),
	}

	return func() tea.Msg {
		id, err := store.Save(conv)
		return ConversationSavedMsg{ID: id, Err: err}
	}
}
