// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the MediGuide TUI.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/ui/components"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// Local wording for attachment validation, matching what the session manager
// reports when the backend rejects the same image.
const (
	noteImageTooLarge    = "The image is too large. Please upload an image smaller than 5MB."
	noteImageInvalidType = "Please upload a valid image file (JPEG, PNG, etc.)."
	noteStillResponding  = "MediBot is still responding. Please wait for the reply."
)

// Update handles messages for the chat model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SendCompleteMsg:
		return m.handleSendComplete(msg)

	case ImageAttachedMsg:
		return m.handleImageAttached(msg)

	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not load history."
			m.logger.Warn("history load failed", zap.Error(msg.Err))
			return m, nil
		}
		m.historyPanel.SetConversations(msg.Metas)
		if msg.FromCache {
			m.statusNote = "Showing locally cached history."
		}
		return m, nil

	case ConversationLoadedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not open that conversation."
			m.logger.Warn("conversation load failed", zap.Error(msg.Err))
			return m, nil
		}
		m.session.LoadConversation(msg.Conversation.ID, msg.Conversation.Messages)
		m.panel = PanelNone
		m.state = StateReady
		m.topicsRecorded = 0
		m.recommendView.SetRecommendation(nil, "", false)
		m.refreshTranscript()
		m.syncStatus()
		return m, nil

	case SpecialistsLoadedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not load specialists."
			m.logger.Warn("specialists load failed", zap.Error(msg.Err))
			return m, nil
		}
		m.specialistsPanel.SetSpecialists(msg.Specialists)
		return m, nil

	case FeedLoadedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not load the health feed."
			m.logger.Warn("feed load failed", zap.Error(msg.Err))
			return m, nil
		}
		m.feedPanel.SetArticles(msg.Articles, msg.FromCache)
		return m, nil

	case ArticleSavedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not save the article."
			m.logger.Warn("article save failed", zap.Error(msg.Err), zap.String("id", msg.ID))
		} else {
			m.statusNote = "Article saved."
			return m, m.loadFeedCmd()
		}
		return m, nil

	case ArticleSharedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not share the article."
			m.logger.Warn("article share failed", zap.Error(msg.Err), zap.String("id", msg.ID))
		} else {
			m.statusNote = "Article shared."
		}
		return m, nil

	case ConversationDeletedMsg:
		if msg.Err != nil {
			m.statusNote = "Could not delete the conversation."
			m.logger.Warn("conversation delete failed", zap.Error(msg.Err), zap.String("id", msg.ID))
			return m, nil
		}
		m.statusNote = "Conversation deleted."
		return m, m.loadHistoryCmd()

	case ConversationSavedMsg:
		if msg.Err != nil {
			m.logger.Warn("local conversation save failed", zap.Error(msg.Err))
		}
		return m, nil

	case StatusMsg:
		m.statusNote = msg.Text
		return m, nil
	}

	// Everything else (spinner ticks, cursor blinks) flows to the components.
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Logout):
		return m, func() tea.Msg { return LogoutMsg{} }
	}

	if m.panel != PanelNone {
		return m.handlePanelKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.NewChat):
		m.session.StartNewChat()
		m.state = StateReady
		m.panel = PanelNone
		m.attachMode = false
		m.topicsRecorded = 0
		m.dropAttachment()
		m.recommendView.SetRecommendation(nil, "", false)
		m.statusNote = ""
		m.refreshTranscript()
		m.syncStatus()
		return m, nil

	case key.Matches(msg, m.keyMap.History):
		m.panel = PanelHistory
		return m, m.loadHistoryCmd()

	case key.Matches(msg, m.keyMap.Specialists):
		m.panel = PanelSpecialists
		return m, m.loadSpecialistsCmd()

	case key.Matches(msg, m.keyMap.Feed):
		m.panel = PanelFeed
		return m, m.loadFeedCmd()

	case key.Matches(msg, m.keyMap.AttachImage):
		m.attachMode = !m.attachMode
		if m.attachMode {
			m.input.Placeholder = "Path to image file..."
			m.statusNote = "Enter the path to an image, then press Enter."
		} else {
			m.input.Placeholder = "Describe your symptoms..."
			m.statusNote = ""
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		return m.handleCancel()

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handlePanelKey routes keys while a side panel is open.
func (m Model) handlePanelKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel),
		key.Matches(msg, m.keyMap.History) && m.panel == PanelHistory,
		key.Matches(msg, m.keyMap.Specialists) && m.panel == PanelSpecialists,
		key.Matches(msg, m.keyMap.Feed) && m.panel == PanelFeed:
		m.panel = PanelNone
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		switch m.panel {
		case PanelHistory:
			m.historyPanel.MoveUp()
		case PanelSpecialists:
			m.specialistsPanel.MoveUp()
		case PanelFeed:
			m.feedPanel.MoveUp()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		switch m.panel {
		case PanelHistory:
			m.historyPanel.MoveDown()
		case PanelSpecialists:
			m.specialistsPanel.MoveDown()
		case PanelFeed:
			m.feedPanel.MoveDown()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.panel == PanelHistory {
			if meta := m.historyPanel.Current(); meta != nil {
				return m, m.loadConversationCmd(meta.ID)
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.SaveArticle):
		if m.panel == PanelFeed {
			if article := m.feedPanel.Current(); article != nil {
				return m, m.saveArticleCmd(article.ID)
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Share):
		if m.panel == PanelFeed {
			if article := m.feedPanel.Current(); article != nil {
				return m, m.shareArticleCmd(article.ID)
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteItem):
		if m.panel == PanelHistory {
			if meta := m.historyPanel.Current(); meta != nil {
				return m, m.deleteConversationCmd(meta.ID)
			}
		}
		return m, nil
	}

	return m, nil
}

// handleCancel backs out of the current minor mode: attach-path entry first,
// then a staged attachment, then the recommendation banner.
func (m Model) handleCancel() (Model, tea.Cmd) {
	if m.attachMode {
		m.attachMode = false
		m.input.Placeholder = "Describe your symptoms..."
		m.input.SetValue("")
		m.statusNote = ""
		return m, nil
	}
	if m.attachment != nil {
		m.dropAttachment()
		m.statusNote = "Image attachment removed."
		return m, nil
	}
	if rec := m.session.Recommendation(); rec != nil {
		// Dismissing re-arms the recommendation for this conversation.
		m.session.ClearRecommendation()
		m.recommendView.SetRecommendation(nil, "", false)
		m.refreshTranscript()
		return m, nil
	}
	return m, nil
}

// handleSubmit sends the current input line.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	if m.attachMode {
		if value == "" {
			return m, nil
		}
		m.attachMode = false
		m.input.Placeholder = "Describe your symptoms..."
		m.input.SetValue("")
		return m, m.attachImageCmd(value)
	}

	// Hard gate: one send at a time.
	if m.state != StateReady {
		m.statusNote = noteStillResponding
		return m, nil
	}

	if m.attachment != nil {
		img := m.attachment
		m.attachment = nil
		m.state = StateAnalyzing
		m.spinner = components.NewImageAnalysisSpinner()
		m.input.SetValue("")
		m.statusNote = ""

		cmd := m.sendImageCmd(value, img)
		spinCmd := m.spinner.Start()
		m.refreshAfterOptimisticAppend()
		return m, tea.Batch(cmd, spinCmd)
	}

	if value == "" {
		return m, nil
	}

	m.state = StateSending
	m.spinner = components.NewThinkingSpinner()
	m.input.SetValue("")
	m.statusNote = ""

	cmd := m.sendTextCmd(value)
	spinCmd := m.spinner.Start()
	m.refreshAfterOptimisticAppend()
	return m, tea.Batch(cmd, spinCmd)
}

// refreshAfterOptimisticAppend updates the chrome for an in-flight send. The
// user's message appears in the transcript on the next SendCompleteMsg (the
// session appends it synchronously inside the send call).
func (m *Model) refreshAfterOptimisticAppend() {
	m.syncStatus()
}

// =============================================================================
// ASYNC RESULT HANDLING
// =============================================================================

func (m Model) handleSendComplete(msg SendCompleteMsg) (Model, tea.Cmd) {
	m.state = StateReady
	m.spinner.Stop()

	// Failure bubbles are already in the transcript; surface any fresh
	// recommendation alongside the reply.
	if rec := m.session.Recommendation(); rec != nil {
		m.recommendView.SetRecommendation(rec.Specialists, rec.Analysis, rec.FromImage)
	}

	m.refreshTranscript()
	m.syncStatus()

	cmds := []tea.Cmd{m.saveConversationCmd()}
	if m.feedCache != nil {
		if topics := m.session.Topics(); len(topics) > m.topicsRecorded {
			cmds = append(cmds, m.recordTopicsCmd(topics[m.topicsRecorded:]))
			m.topicsRecorded = len(topics)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleImageAttached(msg ImageAttachedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, upload.ErrTooLarge):
			m.statusNote = noteImageTooLarge
		case errors.Is(msg.Err, upload.ErrNotAnImage):
			m.statusNote = noteImageInvalidType
		default:
			m.statusNote = "Could not read that file."
		}
		return m, nil
	}

	m.dropAttachment()
	m.attachment = msg.Image
	m.statusNote = "Image attached: " + msg.Image.Name + " (Enter to send, Esc to remove)"
	return m, nil
}

// dropAttachment releases a staged attachment's preview, if any.
func (m *Model) dropAttachment() {
	if m.attachment != nil {
		m.attachment.ReleasePreview()
		m.attachment = nil
	}
}
