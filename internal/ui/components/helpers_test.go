// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWordWrap(t *testing.T) {
	wrapped := wordWrap("the quick brown fox jumps over the lazy dog", 15)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 15)
	}
	assert.Contains(t, wrapped, "quick")

	// Existing newlines are preserved.
	wrapped = wordWrap("first\nsecond", 40)
	assert.Equal(t, "first\nsecond", wrapped)

	// Zero width is a no-op.
	assert.Equal(t, "abc", wordWrap("abc", 0))
}

func TestMaxLineWidth(t *testing.T) {
	assert.Equal(t, 5, maxLineWidth("ab\nhello\nc"))
	assert.Equal(t, 0, maxLineWidth(""))
}

func TestToStr(t *testing.T) {
	assert.Equal(t, "0", toStr(0))
	assert.Equal(t, "42", toStr(42))
	assert.Equal(t, "-7", toStr(-7))
}

func TestFormatTime(t *testing.T) {
	morning := time.Date(2025, 1, 5, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "9:05 AM", formatTime(morning))

	afternoon := time.Date(2025, 1, 5, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, "1:30 PM", formatTime(afternoon))

	midnight := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "12:00 AM", formatTime(midnight))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mar 7", formatDate(d))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "42s", formatElapsed(42*time.Second))
	assert.Equal(t, "1m 12s", formatElapsed(72*time.Second))
}

func TestFmtRating(t *testing.T) {
	assert.Equal(t, "4.8", fmtRating(4.8))
	assert.Equal(t, "5.0", fmtRating(4.97))
	assert.Equal(t, "0.0", fmtRating(-1))
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "short", truncateLine("short", 10))
	assert.Equal(t, "a ver...", truncateLine("a very long title here", 8))
}
