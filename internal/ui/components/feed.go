// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// =============================================================================
// HEALTH FEED PANEL
// =============================================================================

// FeedPanel lists personalized health articles.
type FeedPanel struct {
	Articles []gateway.Article
	Selected int
	Offline  bool // True when showing cached articles
	Width    int
	Height   int
	theme    *styles.Theme
}

// NewFeedPanel creates a feed panel.
func NewFeedPanel(theme *styles.Theme) *FeedPanel {
	return &FeedPanel{
		Width:  50,
		Height: 20,
		theme:  theme,
	}
}

// SetSize updates the panel dimensions.
func (p *FeedPanel) SetSize(width, height int) {
	p.Width = width
	p.Height = height
}

// SetArticles replaces the list and clamps the selection.
func (p *FeedPanel) SetArticles(articles []gateway.Article, offline bool) {
	p.Articles = articles
	p.Offline = offline
	if p.Selected >= len(articles) {
		p.Selected = 0
	}
}

// MoveUp moves the selection up.
func (p *FeedPanel) MoveUp() {
	if p.Selected > 0 {
		p.Selected--
	}
}

// MoveDown moves the selection down.
func (p *FeedPanel) MoveDown() {
	if p.Selected < len(p.Articles)-1 {
		p.Selected++
	}
}

// Current returns the selected article, or nil when the list is empty.
func (p *FeedPanel) Current() *gateway.Article {
	if p.Selected < 0 || p.Selected >= len(p.Articles) {
		return nil
	}
	return &p.Articles[p.Selected]
}

// View renders the panel.
func (p *FeedPanel) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
	title := "Health Feed"
	if p.Offline {
		offlineStyle := lipgloss.NewStyle().Foreground(styles.Amber).Italic(true)
		title += " " + offlineStyle.Render("(cached)")
	}
	lines := []string{titleStyle.Render(title)}

	if len(p.Articles) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		lines = append(lines, emptyStyle.Render("No articles yet. Chat to build your topics."))
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

	for i, article := range p.Articles {
		label := article.Title
		if article.Saved {
			label = "* " + label
		}
		label = truncateLine(label, innerWidth)

		if i == p.Selected {
			lines = append(lines, selectedStyle.Render(label))
		} else {
			lines = append(lines, itemStyle.Render(label))
		}
	}

	// Summary block for the selection.
	if a := p.Current(); a != nil && a.Summary != "" {
		summaryStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		metaStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

		lines = append(lines, "")
		lines = append(lines, summaryStyle.Render(wordWrap(a.Summary, innerWidth)))
		if len(a.Topics) > 0 {
			lines = append(lines, metaStyle.Render(strings.Join(a.Topics, ", ")))
		}
	}

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Teal).
		Padding(1, 2).
		Width(p.Width - 2)

	return panel.Render(strings.Join(lines, "\n"))
}
