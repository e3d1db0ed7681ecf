// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// SessionState describes what the chat session is currently doing.
type SessionState int

const (
	StateReady     SessionState = iota // Waiting for input
	StateSending                       // Text message in flight
	StateAnalyzing                     // Image analysis in flight
	StateOffline                       // Last send failed on connectivity
)

// String returns the display string for the state.
func (s SessionState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateSending:
		return "SENDING"
	case StateAnalyzing:
		return "ANALYZING"
	case StateOffline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// Shortcut is a key binding hint shown on the right side of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the single-line bar at the bottom of the chat view.
type StatusBar struct {
	State          SessionState
	ConversationID string
	MessageCount   int
	TopicCount     int
	Width          int
	Shortcuts      []Shortcut
	theme          *styles.Theme
}

// NewStatusBar creates a status bar with the default shortcut set.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		State: StateReady,
		Width: 80,
		Shortcuts: []Shortcut{
			{Key: "ctrl+n", Desc: "new chat"},
			{Key: "ctrl+h", Desc: "history"},
			{Key: "ctrl+f", Desc: "feed"},
			{Key: "ctrl+c", Desc: "quit"},
		},
		theme: theme,
	}
}

// SetWidth updates the bar width.
func (sb *StatusBar) SetWidth(width int) {
	sb.Width = width
}

// SetState updates the session state.
func (sb *StatusBar) SetState(state SessionState) {
	sb.State = state
}

// SetConversation updates the conversation identity display.
func (sb *StatusBar) SetConversation(id string, messageCount int) {
	sb.ConversationID = id
	sb.MessageCount = messageCount
}

// SetTopicCount updates the extracted-topic counter.
func (sb *StatusBar) SetTopicCount(n int) {
	sb.TopicCount = n
}

// View renders the status bar.
func (sb *StatusBar) View() string {
	left := sb.renderLeft()
	right := sb.renderRight()

	gap := sb.Width - runewidth.StringWidth(stripANSI(left)) - runewidth.StringWidth(stripANSI(right)) - 2
	if gap < 1 {
		gap = 1
	}

	barStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(sb.Width)

	return barStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// renderLeft renders state, conversation id, and counters.
func (sb *StatusBar) renderLeft() string {
	var stateStyle lipgloss.Style
	switch sb.State {
	case StateSending, StateAnalyzing:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	case StateOffline:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	}

	parts := []string{stateStyle.Render("[" + sb.State.String() + "]")}

	metaStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	if sb.ConversationID != "" {
		parts = append(parts, metaStyle.Render("conv:"+shortID(sb.ConversationID)))
	} else {
		parts = append(parts, metaStyle.Render("new conversation"))
	}

	if sb.MessageCount > 0 {
		parts = append(parts, metaStyle.Render(toStr(sb.MessageCount)+" msgs"))
	}
	if sb.TopicCount > 0 {
		parts = append(parts, metaStyle.Render(toStr(sb.TopicCount)+" topics"))
	}

	return strings.Join(parts, " ")
}

// renderRight renders the shortcut hints.
func (sb *StatusBar) renderRight() string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.Blue).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var parts []string
	for _, s := range sb.Shortcuts {
		parts = append(parts, keyStyle.Render(s.Key)+" "+descStyle.Render(s.Desc))
	}
	return strings.Join(parts, "  ")
}

// shortID truncates a conversation id for display.
func shortID(id string) string {
	runes := []rune(id)
	if len(runes) <= 10 {
		return id
	}
	return string(runes[:10]) + "…"
}

// stripANSI removes SGR escape sequences so width math uses visible cells.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if r == '\x1b' {
			inEscape = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
