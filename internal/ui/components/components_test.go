// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestMessageBubbleUser(t *testing.T) {
	msg := model.NewUserMessage("I have a headache")
	bubble := NewMessageBubble(msg, testTheme())
	bubble.SetWidth(60)

	view := bubble.View()
	assert.Contains(t, view, "I have a headache")
	assert.Contains(t, view, "you")
}

func TestMessageBubbleBot(t *testing.T) {
	msg := model.NewAssistantMessage("How long has it lasted?")
	bubble := NewMessageBubble(msg, testTheme())
	bubble.SetWidth(60)

	view := bubble.View()
	assert.Contains(t, view, "How long has it lasted?")
	assert.Contains(t, view, "medibot")
}

func TestMessageBubbleError(t *testing.T) {
	msg := model.NewErrorMessage("I apologize, but I'm having trouble connecting to MediBot. Please check your internet connection and try again.")
	bubble := NewMessageBubble(msg, testTheme())
	bubble.SetWidth(80)

	view := bubble.View()
	assert.Contains(t, view, "trouble connecting")
	assert.Contains(t, view, styles.StatusIndicators.Error)
}

func TestMessageBubbleImageAnalysisHeader(t *testing.T) {
	msg := model.NewAssistantMessage("The rash appears mild.")
	msg.IsImageAnalysis = true
	bubble := NewMessageBubble(msg, testTheme())
	bubble.SetWidth(60)

	assert.Contains(t, bubble.View(), "image analysis")
}

func TestMessageBubbleNilMessage(t *testing.T) {
	bubble := NewMessageBubble(nil, testTheme())
	assert.NotPanics(t, func() { bubble.View() })
}

func TestMessageListEmpty(t *testing.T) {
	list := NewMessageList(testTheme())
	list.SetWidth(60)
	assert.Contains(t, list.View(), "No messages yet")
}

func TestMessageListRendersAll(t *testing.T) {
	list := NewMessageList(testTheme())
	list.SetWidth(60)
	list.SetMessages([]*model.Message{
		model.NewUserMessage("hello"),
		model.NewAssistantMessage("hi there"),
	})

	view := list.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "hi there")
}

func TestHeaderView(t *testing.T) {
	header := NewHeader(testTheme())
	header.SetWidth(80)
	header.SetUserName("Aisha")

	view := header.View()
	assert.Contains(t, view, "MediGuide")
	assert.Contains(t, view, "Aisha")
	assert.Contains(t, view, "READY")

	header.SetBusy(true)
	assert.Contains(t, header.View(), "BUSY")
}

func TestHeaderCompact(t *testing.T) {
	header := NewHeader(testTheme())
	view := header.ViewCompact()
	assert.Contains(t, view, "MediGuide")
}

func TestStatusBarStates(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(100)

	assert.Contains(t, bar.View(), "READY")
	assert.Contains(t, bar.View(), "new conversation")

	bar.SetState(StateSending)
	bar.SetConversation("conv-1234567890", 4)
	bar.SetTopicCount(2)

	view := bar.View()
	assert.Contains(t, view, "SENDING")
	assert.Contains(t, view, "conv:")
	assert.Contains(t, view, "4 msgs")
	assert.Contains(t, view, "2 topics")
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "READY", StateReady.String())
	assert.Equal(t, "ANALYZING", StateAnalyzing.String())
	assert.Equal(t, "OFFLINE", StateOffline.String())
}

func TestRecommendationViewEmpty(t *testing.T) {
	rv := NewRecommendationView(testTheme())
	assert.Equal(t, "", rv.View())
}

func TestRecommendationView(t *testing.T) {
	rv := NewRecommendationView(testTheme())
	rv.SetWidth(80)
	rv.SetRecommendation([]gateway.Specialist{
		{Name: "Dr. Okonkwo", Specialty: "Dermatology", Rating: 4.8, Verified: true},
		{Name: "Dr. Mehta", Specialty: "Neurology"},
	}, "Symptoms suggest a skin condition.", true)

	view := rv.View()
	assert.Contains(t, view, "Recommended specialists")
	assert.Contains(t, view, "based on your image")
	assert.Contains(t, view, "Dr. Okonkwo")
	assert.Contains(t, view, "verified")
	assert.Contains(t, view, "4.8")
}

func TestSpecialistsPanelSelection(t *testing.T) {
	panel := NewSpecialistsPanel(testTheme())
	panel.SetSpecialists([]gateway.Specialist{
		{Name: "Dr. A"}, {Name: "Dr. B"},
	})

	assert.Equal(t, "Dr. A", panel.Current().Name)
	panel.MoveDown()
	assert.Equal(t, "Dr. B", panel.Current().Name)
	panel.MoveDown() // Clamped at the end.
	assert.Equal(t, "Dr. B", panel.Current().Name)
	panel.MoveUp()
	assert.Equal(t, "Dr. A", panel.Current().Name)

	assert.Contains(t, panel.View(), "Dr. A")
}

func TestHistoryPanel(t *testing.T) {
	panel := NewHistoryPanel(testTheme())
	panel.SetConversations([]storage.ConversationMeta{
		{ID: "c1", Title: "Headache", UpdatedAt: time.Now(), MessageCount: 3},
		{ID: "c2", Title: "Knee pain", UpdatedAt: time.Now(), MessageCount: 5},
	})

	view := panel.View()
	assert.Contains(t, view, "Headache")
	assert.Contains(t, view, "Knee pain")

	panel.MoveDown()
	assert.Equal(t, "c2", panel.Current().ID)
}

func TestFeedPanel(t *testing.T) {
	panel := NewFeedPanel(testTheme())
	panel.SetArticles([]gateway.Article{
		{ID: "a1", Title: "Sleep hygiene", Summary: "Better rest.", Saved: true},
	}, true)

	view := panel.View()
	assert.Contains(t, view, "Health Feed")
	assert.Contains(t, view, "cached")
	assert.Contains(t, view, "Sleep hygiene")
	assert.Contains(t, view, "Better rest.")
}

func TestWelcomeView(t *testing.T) {
	w := NewWelcome(testTheme())
	w.UserName = "Aisha"
	w.SetSize(100, 30)

	view := w.View()
	assert.Contains(t, view, "MediGuide")
	assert.Contains(t, view, "Welcome back, Aisha")
	assert.Contains(t, view, "not a substitute")
}

func TestSpinnerLifecycle(t *testing.T) {
	s := NewThinkingSpinner()
	assert.False(t, s.IsActive())
	assert.Equal(t, "", s.View())

	cmd := s.Start()
	assert.NotNil(t, cmd)
	assert.True(t, s.IsActive())
	assert.Contains(t, s.View(), "MediBot is thinking")

	s.Stop()
	assert.False(t, s.IsActive())
}

func TestMarkdownRendererFallback(t *testing.T) {
	r := NewMarkdownRenderer()
	out := r.Render("plain **bold** text", 40)
	assert.NotEmpty(t, out)
}
