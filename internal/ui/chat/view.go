// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the MediGuide TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sections []string

	sections = append(sections, m.header.View())

	switch m.panel {
	case PanelHistory:
		sections = append(sections, m.historyPanel.View())
	case PanelSpecialists:
		sections = append(sections, m.specialistsPanel.View())
	case PanelFeed:
		sections = append(sections, m.feedPanel.View())
	default:
		sections = append(sections, m.renderTranscript())
	}

	if m.spinner.IsActive() {
		sections = append(sections, " "+m.spinner.View())
	}

	if banner := m.recommendView.View(); banner != "" && m.panel == PanelNone {
		sections = append(sections, banner)
	}

	sections = append(sections, m.renderInput())
	sections = append(sections, m.statusBar.View())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders the scrolling message area, or the welcome screen
// for a fresh conversation.
func (m Model) renderTranscript() string {
	if m.session.MessageCount() == 0 && m.state == StateReady {
		return m.welcome.View()
	}
	return m.viewport.View()
}

// renderInput renders the input line plus any transient status note.
func (m Model) renderInput() string {
	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		Width(m.width)

	lines := []string{m.input.View()}

	if m.attachment != nil {
		attachStyle := lipgloss.NewStyle().
			Foreground(styles.Teal).
			Italic(true)
		lines = append(lines, attachStyle.Render("[img] "+m.attachment.Name))
	}

	if m.statusNote != "" {
		noteStyle := lipgloss.NewStyle().
			Foreground(styles.Amber).
			Italic(true)
		lines = append(lines, noteStyle.Render(m.statusNote))
	}

	return inputStyle.Render(strings.Join(lines, "\n"))
}

// renderHelp renders the full key binding reference.
func (m Model) renderHelp() string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.Blue).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var rows []string
	for _, group := range m.keyMap.FullHelp() {
		var parts []string
		for _, binding := range group {
			help := binding.Help()
			parts = append(parts, keyStyle.Render(help.Key)+" "+descStyle.Render(help.Desc))
		}
		rows = append(rows, strings.Join(parts, "   "))
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return box.Render(strings.Join(rows, "\n"))
}
