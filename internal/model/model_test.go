// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "MediBot", RoleAssistant.DisplayName())
	assert.Equal(t, "system", Role("system").DisplayName())
}

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("I have a headache")

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "I have a headache", msg.Text)
	assert.False(t, msg.Timestamp.IsZero())
	assert.False(t, msg.IsError)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("Connection issue. Please check your internet and try again.")

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.True(t, msg.IsError)
}

func TestAdoptServerID(t *testing.T) {
	msg := NewUserMessage("hi")
	localID := msg.ID

	msg.AdoptServerID("")
	assert.Equal(t, localID, msg.ID, "empty server id must not clobber local id")

	msg.AdoptServerID("srv-42")
	assert.Equal(t, "srv-42", msg.ID)
}

func TestMessagePreview(t *testing.T) {
	msg := NewUserMessage("line one\nline two")
	assert.Equal(t, "line one line two", msg.Preview(80))

	long := NewUserMessage(strings.Repeat("a", 100))
	preview := long.Preview(20)
	assert.Len(t, []rune(preview), 20)
	assert.True(t, strings.HasSuffix(preview, "..."))
}

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation()

	conv.AddUserMessage("first")
	conv.AddAssistantMessage("second")
	conv.AddUserMessage("third")

	require.Equal(t, 3, conv.MessageCount())
	assert.Equal(t, "first", conv.Messages[0].Text)
	assert.Equal(t, "second", conv.Messages[1].Text)
	assert.Equal(t, "third", conv.Messages[2].Text)
}

func TestConversationAdoptID(t *testing.T) {
	conv := NewConversation()
	assert.Empty(t, conv.ID)

	conv.AdoptID("conv-1")
	assert.Equal(t, "conv-1", conv.ID)

	// First writer wins.
	conv.AdoptID("conv-2")
	assert.Equal(t, "conv-1", conv.ID)

	conv.AdoptID("")
	assert.Equal(t, "conv-1", conv.ID)
}

func TestConversationReplace(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("stale")

	msgs := []*Message{
		NewUserMessage("restored question"),
		NewAssistantMessage("restored answer"),
	}
	conv.Replace("conv-9", msgs)

	assert.Equal(t, "conv-9", conv.ID)
	require.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, "restored question", conv.Messages[0].Text)
}

func TestConversationLastMessages(t *testing.T) {
	conv := NewConversation()
	assert.Nil(t, conv.GetLastMessage())
	assert.Nil(t, conv.GetLastUserMessage())
	assert.Nil(t, conv.GetLastAssistantMessage())

	conv.AddUserMessage("q1")
	conv.AddAssistantMessage("a1")
	conv.AddUserMessage("q2")

	assert.Equal(t, "q2", conv.GetLastMessage().Text)
	assert.Equal(t, "q2", conv.GetLastUserMessage().Text)
	assert.Equal(t, "a1", conv.GetLastAssistantMessage().Text)
}

func TestConversationClear(t *testing.T) {
	conv := NewConversation()
	conv.AdoptID("conv-1")
	conv.AddUserMessage("hello")

	conv.Clear()

	assert.Empty(t, conv.ID)
	assert.True(t, conv.IsEmpty())
}

func TestConversationPreview(t *testing.T) {
	conv := NewConversation()
	assert.Equal(t, "Empty conversation", conv.Preview())

	conv.AddAssistantMessage("welcome")
	assert.Equal(t, "Empty conversation", conv.Preview())

	conv.AddUserMessage("my knee hurts")
	assert.Equal(t, "my knee hurts", conv.Preview())
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation()
	conv.AdoptID("conv-1")
	conv.AddUserMessage("original")

	clone := conv.Clone()
	clone.Messages[0].Text = "mutated"

	assert.Equal(t, "original", conv.Messages[0].Text)
	assert.Equal(t, "conv-1", clone.ID)
}
