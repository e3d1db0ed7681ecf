// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/session"
	"github.com/mediguide/mediguide-tui/internal/storage"
)

type stubGateway struct {
	resp *gateway.SendResponse
	err  error
}

func (s *stubGateway) SendMessage(ctx context.Context, message, conversationID string) (*gateway.SendResponse, error) {
	return s.resp, s.err
}

func (s *stubGateway) SendMessageWithImage(ctx context.Context, message, conversationID, fileName, fileMIME string, image []byte) (*gateway.SendResponse, error) {
	return s.resp, s.err
}

func (s *stubGateway) GetRecommendations(ctx context.Context, conversationContext string) (*gateway.RecommendationResponse, error) {
	return &gateway.RecommendationResponse{}, nil
}

func (s *stubGateway) UpdateUserTopics(ctx context.Context, topics []string, source string) error {
	return nil
}

type stubDirectory struct {
	specialists []gateway.Specialist
	err         error
}

func (d *stubDirectory) GetAllSpecialists(ctx context.Context) ([]gateway.Specialist, error) {
	return d.specialists, d.err
}

func newTestREPL(t *testing.T, gw session.Gateway) *REPL {
	t.Helper()

	store, err := storage.NewConversationStore(t.TempDir())
	require.NoError(t, err)

	sess := session.NewManager(gw, nil)
	return NewREPL(sess, store, &stubDirectory{}, nil)
}

func okResponse(text string) *gateway.SendResponse {
	return &gateway.SendResponse{
		ConversationID: "conv-1",
		AIMessage: gateway.AIMessage{
			ID:        "srv-1",
			Text:      text,
			Timestamp: time.Now(),
		},
	}
}

func TestSendTextAppendsAndSaves(t *testing.T) {
	r := newTestREPL(t, &stubGateway{resp: okResponse("How long has it lasted?")})

	err := r.sendText(context.Background(), "I have a headache")
	require.NoError(t, err)

	assert.Equal(t, 2, r.session.MessageCount())
	assert.Equal(t, "conv-1", r.session.ConversationID())

	metas, err := r.store.List()
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestSendTextSessionExpiredPropagates(t *testing.T) {
	r := newTestREPL(t, &stubGateway{err: gateway.ErrSessionExpired})

	err := r.sendText(context.Background(), "hello")
	assert.ErrorIs(t, err, gateway.ErrSessionExpired)
}

func TestSlashCommandNewResetsConversation(t *testing.T) {
	r := newTestREPL(t, &stubGateway{resp: okResponse("hi")})

	require.NoError(t, r.sendText(context.Background(), "hello"))
	require.Equal(t, 2, r.session.MessageCount())

	cont, err := r.handleSlashCommand(context.Background(), "/new")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 0, r.session.MessageCount())
}

func TestSlashCommandQuit(t *testing.T) {
	r := newTestREPL(t, &stubGateway{})

	cont, err := r.handleSlashCommand(context.Background(), "/quit")
	require.NoError(t, err)
	assert.False(t, cont)
}

func TestSlashCommandUnknown(t *testing.T) {
	r := newTestREPL(t, &stubGateway{})

	cont, err := r.handleSlashCommand(context.Background(), "/bogus")
	assert.True(t, cont)
	assert.Error(t, err)
}

func TestSlashCommandImageRequiresPath(t *testing.T) {
	r := newTestREPL(t, &stubGateway{})

	cont, err := r.handleSlashCommand(context.Background(), "/image")
	assert.True(t, cont)
	assert.Error(t, err)
}

func TestSlashCommandExport(t *testing.T) {
	r := newTestREPL(t, &stubGateway{resp: okResponse("Drink water and rest.")})
	require.NoError(t, r.sendText(context.Background(), "I have a headache"))

	path := filepath.Join(t.TempDir(), "conv.md")
	cont, err := r.handleSlashCommand(context.Background(), "/export "+path)
	require.NoError(t, err)
	assert.True(t, cont)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "I have a headache")
	assert.Contains(t, string(data), "Drink water and rest.")
}

func TestSlashCommandExportEmptyConversation(t *testing.T) {
	r := newTestREPL(t, &stubGateway{})

	_, err := r.handleSlashCommand(context.Background(), "/export")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "2.0 KB", formatBytes(2048))
	assert.Equal(t, "1.5 MB", formatBytes(1572864))
}
