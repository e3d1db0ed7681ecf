// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the MediGuide TUI.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/feedcache"
	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/session"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/ui/components"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents what the chat view is currently doing.
type State int

const (
	StateReady     State = iota // Waiting for input
	StateSending                // Text message in flight
	StateAnalyzing              // Image analysis in flight
)

// Panel identifies which side panel, if any, overlays the transcript.
type Panel int

const (
	PanelNone Panel = iota
	PanelHistory
	PanelSpecialists
	PanelFeed
)

// Backend is the subset of the gateway client the side panels use.
type Backend interface {
	GetAllSpecialists(ctx context.Context) ([]gateway.Specialist, error)
	GetPersonalizedFeed(ctx context.Context) ([]gateway.Article, error)
	GetFeedByTopics(ctx context.Context, topics []string) ([]gateway.Article, error)
	SaveArticle(ctx context.Context, id string) error
	ShareArticle(ctx context.Context, id string) error
	GetConversations(ctx context.Context) ([]gateway.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*gateway.ConversationDetail, error)
	DeleteConversation(ctx context.Context, id string) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State
	panel Panel

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Domain
	session   *session.Manager
	store     *storage.ConversationStore
	backend   Backend
	feedCache *feedcache.Cache
	logger    *zap.Logger

	// UI components
	viewport         viewport.Model
	input            textinput.Model
	spinner          components.Spinner
	header           *components.Header
	statusBar        *components.StatusBar
	messageList      *components.MessageList
	recommendView    *components.RecommendationView
	historyPanel     *components.HistoryPanel
	specialistsPanel *components.SpecialistsPanel
	feedPanel        *components.FeedPanel
	welcome          *components.Welcome

	// Key bindings
	keyMap   KeyMap
	showHelp bool

	// Pending image attachment. attachMode means the input line is currently
	// collecting a file path rather than a chat message.
	attachment *upload.Image
	attachMode bool

	// Transient status line
	statusNote string

	// How many session topics have been mirrored into the feed cache's
	// topic history so far.
	topicsRecorded int

	ready bool
}

// New creates a new chat model.
func New(theme *styles.Theme, sess *session.Manager, store *storage.ConversationStore, backend Backend, cache *feedcache.Cache, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe your symptoms..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	list := components.NewMessageList(theme)
	list.Markdown = components.NewMarkdownRenderer()

	return Model{
		state:            StateReady,
		panel:            PanelNone,
		theme:            theme,
		width:            80,
		height:           24,
		session:          sess,
		store:            store,
		backend:          backend,
		feedCache:        cache,
		logger:           logger,
		viewport:         vp,
		input:            ti,
		spinner:          components.NewThinkingSpinner(),
		header:           components.NewHeader(theme),
		statusBar:        components.NewStatusBar(theme),
		messageList:      list,
		recommendView:    components.NewRecommendationView(theme),
		historyPanel:     components.NewHistoryPanel(theme),
		specialistsPanel: components.NewSpecialistsPanel(theme),
		feedPanel:        components.NewFeedPanel(theme),
		welcome:          components.NewWelcome(theme),
		keyMap:           DefaultKeyMap(),
	}
}

// SetUserName sets the logged-in user's display name on the chrome.
func (m *Model) SetUserName(name string) {
	m.header.SetUserName(name)
	m.welcome.UserName = name
}

// SetDisplayOptions applies the configured transcript rendering knobs.
func (m *Model) SetDisplayOptions(showTimestamps, compact bool) {
	m.messageList.ShowTimestamps = showTimestamps
	m.messageList.Compact = compact
}

// Init initializes the chat model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// ActivePanel returns the currently open side panel.
func (m Model) ActivePanel() Panel {
	return m.panel
}

// HasAttachment reports whether an image is staged for the next send.
func (m Model) HasAttachment() bool {
	return m.attachment != nil
}

// setSize propagates terminal dimensions to every component.
func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.messageList.SetWidth(width - 2)
	m.recommendView.SetWidth(width)
	m.welcome.SetSize(width, height-6)

	panelHeight := height - 8
	m.historyPanel.SetSize(width, panelHeight)
	m.specialistsPanel.SetSize(width, panelHeight)
	m.feedPanel.SetSize(width, panelHeight)

	m.viewport.Width = width
	m.viewport.Height = m.transcriptHeight()
	m.input.Width = width - 6

	m.ready = true
	m.refreshTranscript()
}

// transcriptHeight returns the viewport height after fixed chrome.
func (m *Model) transcriptHeight() int {
	// Header (4) + input (3) + status bar (1) + spinner line (1).
	h := m.height - 9
	if rec := m.session.Recommendation(); rec != nil && len(rec.Specialists) > 0 {
		h -= 5
	}
	if h < 3 {
		h = 3
	}
	return h
}

// refreshTranscript re-renders the message list into the viewport and keeps
// the latest message visible.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.messageList.SetMessages(m.session.Messages())
	m.viewport.Height = m.transcriptHeight()
	m.viewport.SetContent(m.messageList.View())
	m.viewport.GotoBottom()
}

// syncStatus mirrors session state into the status bar and header.
func (m *Model) syncStatus() {
	switch m.state {
	case StateSending:
		m.statusBar.SetState(components.StateSending)
	case StateAnalyzing:
		m.statusBar.SetState(components.StateAnalyzing)
	default:
		m.statusBar.SetState(components.StateReady)
	}
	m.statusBar.SetConversation(m.session.ConversationID(), m.session.MessageCount())
	m.statusBar.SetTopicCount(len(m.session.Topics()))
	m.header.SetBusy(m.state != StateReady)
}
