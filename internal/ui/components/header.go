// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - Title bar with MediGuide branding
// =============================================================================

// Header is the title bar shown above the transcript.
type Header struct {
	Title    string // Main title (default: "MediGuide")
	UserName string // Logged-in user's display name
	Busy     bool   // True while a send is in flight
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "MediGuide",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetUserName updates the logged-in user's name.
func (h *Header) SetUserName(name string) {
	h.UserName = name
}

// SetBusy updates the busy indicator.
func (h *Header) SetBusy(busy bool) {
	h.Busy = busy
}

// View renders the header component.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	innerWidth := width - 6

	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Teal)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Blue)

	brand := accentStyle.Render("+ ") +
		brandStyle.Render(h.Title) +
		accentStyle.Render(" +")

	subtitleParts := []string{}

	if h.UserName != "" {
		userStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
		subtitleParts = append(subtitleParts, userStyle.Render(h.UserName))
	}

	subtitleParts = append(subtitleParts, h.statusBadge())

	subtitle := strings.Join(subtitleParts, " ")

	brandLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(brand)

	subtitleLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Foreground(styles.TextMuted).
		Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, brandLine, subtitleLine)

	headerBox := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Teal).
		Background(styles.SurfaceDim).
		Padding(0, 2).
		Width(width)

	return headerBox.Render(content)
}

// ViewCompact renders a compact single-line header for narrow terminals.
func (h *Header) ViewCompact() string {
	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Teal)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Blue)

	brand := accentStyle.Render("+") +
		brandStyle.Render(h.Title) +
		accentStyle.Render("+")

	parts := []string{brand}

	if h.UserName != "" {
		userStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted)
		parts = append(parts, userStyle.Render(h.UserName))
	}

	parts = append(parts, h.statusBadge())

	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	return strings.Join(parts, separator)
}

// statusBadge returns the ready/busy indicator.
func (h *Header) statusBadge() string {
	if h.Busy {
		return lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true).
			Render("[BUSY]")
	}
	return lipgloss.NewStyle().
		Foreground(styles.Emerald).
		Bold(true).
		Render("[READY]")
}
