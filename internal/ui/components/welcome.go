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
// WELCOME SCREEN COMPONENT
// =============================================================================

// Welcome is the first screen shown after login, before any message is sent.
type Welcome struct {
	Version  string
	UserName string
	Width    int
	Height   int
	theme    *styles.Theme
}

// NewWelcome creates a welcome screen.
func NewWelcome(theme *styles.Theme) *Welcome {
	return &Welcome{
		Version: "dev",
		Width:   80,
		Height:  24,
		theme:   theme,
	}
}

// SetSize updates the screen dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.Width = width
	w.Height = height
}

// View renders the welcome screen.
func (w *Welcome) View() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Teal).
		Bold(true)

	versionStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	infoStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Blue).
		Bold(true)

	disclaimerStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Italic(true)

	greeting := "Welcome to MediGuide"
	if w.UserName != "" {
		greeting = "Welcome back, " + w.UserName
	}

	lines := []string{
		logoStyle.Render("MediGuide"),
		versionStyle.Render(w.Version),
		"",
		infoStyle.Render(greeting),
		infoStyle.Render("Describe your symptoms and MediBot will help you understand them."),
		"",
		keyStyle.Render("enter") + infoStyle.Render("  send message"),
		keyStyle.Render("ctrl+o") + infoStyle.Render(" attach an image"),
		keyStyle.Render("ctrl+h") + infoStyle.Render(" browse history"),
		"",
		disclaimerStyle.Render("MediBot is not a substitute for professional medical advice."),
		disclaimerStyle.Render("If this is an emergency, contact your local emergency services."),
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Teal).
		Padding(2, 4).
		Align(lipgloss.Center)

	content := box.Render(strings.Join(lines, "\n"))

	return lipgloss.Place(w.Width, w.Height, lipgloss.Center, lipgloss.Center, content)
}
