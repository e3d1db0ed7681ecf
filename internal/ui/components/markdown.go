// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders MediBot markdown replies for terminal display.
// Glamour renderers are bound to a wrap width, so the renderer is rebuilt
// lazily when the requested width changes.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render renders markdown at the given wrap width. On any rendering error
// the raw text is word-wrapped and returned instead, so a malformed reply
// never blanks the transcript.
func (m *MarkdownRenderer) Render(text string, width int) string {
	if width < 20 {
		width = 20
	}

	if m.renderer == nil || m.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			return wordWrap(text, width)
		}
		m.renderer = renderer
		m.width = width
	}

	rendered, err := m.renderer.Render(text)
	if err != nil {
		return wordWrap(text, width)
	}

	// Glamour pads output with blank lines; the bubble supplies its own.
	return strings.Trim(rendered, "\n")
}
