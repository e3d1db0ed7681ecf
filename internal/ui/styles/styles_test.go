// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThemeInitializesStyles(t *testing.T) {
	theme := NewTheme()

	// Spot-check that key styles carry their configured attributes.
	assert.True(t, theme.HeaderTitle.GetBold())
	assert.True(t, theme.UserBubble.GetMarginLeft() > 0)
	assert.True(t, theme.BotBubble.GetMarginRight() > 0)
	assert.True(t, theme.PanelItemSelected.GetBold())
	assert.True(t, theme.LinkStyle.GetUnderline())
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme()

	theme.SetSize(40, 20)
	assert.Equal(t, LayoutNarrow, theme.GetLayoutMode())

	theme.SetSize(80, 24)
	assert.Equal(t, LayoutMedium, theme.GetLayoutMode())

	theme.SetSize(140, 40)
	assert.Equal(t, LayoutWide, theme.GetLayoutMode())
}

func TestSpinnerDuration(t *testing.T) {
	assert.Equal(t, len(DotsSpinner.Frames), 6)
	assert.True(t, DotsSpinner.Duration() > 0)
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "", RenderProgressBar(0, 50))
	assert.Equal(t, "----------", RenderProgressBar(10, 0))
	assert.Equal(t, "##########", RenderProgressBar(10, 100))

	half := RenderProgressBar(10, 50)
	assert.Len(t, half, 10)
	assert.Contains(t, half, "#####")
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
	} {
		for _, r := range s {
			assert.Less(t, r, rune(128))
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), "saved")
	assert.Contains(t, RenderError("failed"), "failed")
	assert.Contains(t, RenderWarning("careful"), "careful")
	assert.Contains(t, RenderInfo("note"), "note")
}
