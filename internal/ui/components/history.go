// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// =============================================================================
// CONVERSATION HISTORY PANEL
// =============================================================================

// HistoryPanel lists saved conversations for browsing and resuming.
type HistoryPanel struct {
	Conversations []storage.ConversationMeta
	Selected      int
	Filter        string
	Width         int
	Height        int
	theme         *styles.Theme
}

// NewHistoryPanel creates a history panel.
func NewHistoryPanel(theme *styles.Theme) *HistoryPanel {
	return &HistoryPanel{
		Width:  50,
		Height: 20,
		theme:  theme,
	}
}

// SetSize updates the panel dimensions.
func (p *HistoryPanel) SetSize(width, height int) {
	p.Width = width
	p.Height = height
}

// SetConversations replaces the list and clamps the selection.
func (p *HistoryPanel) SetConversations(metas []storage.ConversationMeta) {
	p.Conversations = metas
	if p.Selected >= len(metas) {
		p.Selected = 0
	}
}

// MoveUp moves the selection up.
func (p *HistoryPanel) MoveUp() {
	if p.Selected > 0 {
		p.Selected--
	}
}

// MoveDown moves the selection down.
func (p *HistoryPanel) MoveDown() {
	if p.Selected < len(p.Conversations)-1 {
		p.Selected++
	}
}

// Current returns the selected conversation, or nil when the list is empty.
func (p *HistoryPanel) Current() *storage.ConversationMeta {
	if p.Selected < 0 || p.Selected >= len(p.Conversations) {
		return nil
	}
	return &p.Conversations[p.Selected]
}

// View renders the panel.
func (p *HistoryPanel) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
	title := "History"
	if p.Filter != "" {
		title += " /" + p.Filter
	}
	lines := []string{titleStyle.Render(title)}

	if len(p.Conversations) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		lines = append(lines, emptyStyle.Render("No saved conversations."))
	}

	innerWidth := p.Width - 8
	if innerWidth < 20 {
		innerWidth = 20
	}

	itemStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary).Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().
		Background(styles.Teal).
		Foreground(styles.TextInverse).
		Bold(true).
		Padding(0, 1)
	metaStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	// Cap the visible window so long histories don't overflow the panel.
	maxVisible := p.Height - 6
	if maxVisible < 3 {
		maxVisible = 3
	}
	start := 0
	if p.Selected >= maxVisible {
		start = p.Selected - maxVisible + 1
	}
	end := minInt(start+maxVisible, len(p.Conversations))

	for i := start; i < end; i++ {
		meta := p.Conversations[i]
		label := truncateLine(meta.Title, innerWidth)

		if i == p.Selected {
			lines = append(lines, selectedStyle.Render(label))
			detail := formatDate(meta.UpdatedAt) + " | " + toStr(meta.MessageCount) + " msgs"
			lines = append(lines, metaStyle.Render("  "+detail))
		} else {
			lines = append(lines, itemStyle.Render(label))
		}
	}

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Teal).
		Padding(1, 2).
		Width(p.Width - 2)

	return panel.Render(strings.Join(lines, "\n"))
}
