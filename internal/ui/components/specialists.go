// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the MediGuide TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// =============================================================================
// SPECIALIST RECOMMENDATION BANNER
// =============================================================================

// RecommendationView renders the one-shot specialist recommendation banner
// shown under the transcript after MediBot flags a conversation.
type RecommendationView struct {
	Specialists []gateway.Specialist
	Analysis    string
	FromImage   bool
	Width       int
	theme       *styles.Theme
}

// NewRecommendationView creates a recommendation banner.
func NewRecommendationView(theme *styles.Theme) *RecommendationView {
	return &RecommendationView{
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the banner width.
func (rv *RecommendationView) SetWidth(width int) {
	rv.Width = width
}

// SetRecommendation updates the banner content.
func (rv *RecommendationView) SetRecommendation(specialists []gateway.Specialist, analysis string, fromImage bool) {
	rv.Specialists = specialists
	rv.Analysis = analysis
	rv.FromImage = fromImage
}

// View renders the banner. Returns "" when there is nothing to recommend.
func (rv *RecommendationView) View() string {
	if len(rv.Specialists) == 0 {
		return ""
	}

	innerWidth := rv.Width - 8
	if innerWidth < 30 {
		innerWidth = 30
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Emerald).
		Bold(true)

	title := "Recommended specialists"
	if rv.FromImage {
		title += " (based on your image)"
	}

	lines := []string{titleStyle.Render(title)}

	if rv.Analysis != "" {
		analysisStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Italic(true)
		lines = append(lines, analysisStyle.Render(wordWrap(rv.Analysis, innerWidth)))
	}

	// Show at most three; the full list lives in the specialists panel.
	shown := rv.Specialists
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for _, sp := range shown {
		lines = append(lines, renderSpecialistLine(sp, innerWidth))
	}

	if len(rv.Specialists) > 3 {
		moreStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		lines = append(lines, moreStyle.Render("+"+toStr(len(rv.Specialists)-3)+" more (ctrl+s)"))
	}

	content := strings.Join(lines, "\n")

	banner := lipgloss.NewStyle().
		Foreground(styles.RecommendFg).
		Background(styles.RecommendBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Emerald).
		Padding(0, 2).
		Width(rv.Width - 4)

	return banner.Render(content)
}

// renderSpecialistLine renders one specialist as a single line.
func renderSpecialistLine(sp gateway.Specialist, width int) string {
	nameStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true)
	fieldStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	metaStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	parts := []string{nameStyle.Render(sp.Name)}
	if sp.Specialty != "" {
		parts = append(parts, fieldStyle.Render(sp.Specialty))
	}
	if sp.Rating > 0 {
		parts = append(parts, metaStyle.Render(fmtRating(sp.Rating)+"*"))
	}
	if sp.Verified {
		verifiedStyle := lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
		parts = append(parts, verifiedStyle.Render("[verified]"))
	}

	return wordWrap(strings.Join(parts, " "), width)
}

// =============================================================================
// SPECIALISTS PANEL
// =============================================================================

// SpecialistsPanel is the full browsable specialist list.
type SpecialistsPanel struct {
	Specialists []gateway.Specialist
	Selected    int
	Width       int
	Height      int
	theme       *styles.Theme
}

// NewSpecialistsPanel creates a specialists panel.
func NewSpecialistsPanel(theme *styles.Theme) *SpecialistsPanel {
	return &SpecialistsPanel{
		Width:  50,
		Height: 20,
		theme:  theme,
	}
}

// SetSize updates the panel dimensions.
func (p *SpecialistsPanel) SetSize(width, height int) {
	p.Width = width
	p.Height = height
}

// SetSpecialists replaces the list and clamps the selection.
func (p *SpecialistsPanel) SetSpecialists(specialists []gateway.Specialist) {
	p.Specialists = specialists
	if p.Selected >= len(specialists) {
		p.Selected = 0
	}
}

// MoveUp moves the selection up.
func (p *SpecialistsPanel) MoveUp() {
	if p.Selected > 0 {
		p.Selected--
	}
}

// MoveDown moves the selection down.
func (p *SpecialistsPanel) MoveDown() {
	if p.Selected < len(p.Specialists)-1 {
		p.Selected++
	}
}

// Current returns the selected specialist, or nil when the list is empty.
func (p *SpecialistsPanel) Current() *gateway.Specialist {
	if p.Selected < 0 || p.Selected >= len(p.Specialists) {
		return nil
	}
	return &p.Specialists[p.Selected]
}

// View renders the panel.
func (p *SpecialistsPanel) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
	lines := []string{titleStyle.Render("Specialists")}

	if len(p.Specialists) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		lines = append(lines, emptyStyle.Render("No specialists loaded."))
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

	for i, sp := range p.Specialists {
		label := sp.Name
		if sp.Specialty != "" {
			label += " - " + sp.Specialty
		}
		if sp.Verified {
			label += " [verified]"
		}
		label = truncateLine(label, innerWidth)

		if i == p.Selected {
			lines = append(lines, selectedStyle.Render(label))
		} else {
			lines = append(lines, itemStyle.Render(label))
		}
	}

	// Detail block for the selection.
	if sp := p.Current(); sp != nil {
		detailStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		metaStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

		lines = append(lines, "")
		if sp.Bio != "" {
			lines = append(lines, detailStyle.Render(wordWrap(sp.Bio, innerWidth)))
		}
		meta := []string{}
		if sp.Rating > 0 {
			meta = append(meta, "rating "+fmtRating(sp.Rating))
		}
		if sp.Experience != 0 {
			meta = append(meta, strconv.Itoa(sp.Experience))
		}
		if sp.Phone != "" {
			meta = append(meta, sp.Phone)
		}
		if len(meta) > 0 {
			lines = append(lines, metaStyle.Render(strings.Join(meta, " | ")))
		}
	}

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Teal).
		Padding(1, 2).
		Width(p.Width - 2)

	return panel.Render(strings.Join(lines, "\n"))
}

// truncateLine truncates a line to a display width, rune-safe.
func truncateLine(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
