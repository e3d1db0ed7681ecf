// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

type stubAuth struct {
	resp  *gateway.LoginResponse
	err   error
	phone string
}

func (s *stubAuth) Login(ctx context.Context, phone string) (*gateway.LoginResponse, error) {
	s.phone = phone
	return s.resp, s.err
}

func TestSubmitRejectsShortPhone(t *testing.T) {
	m := New(styles.NewTheme(), &stubAuth{})
	m.input.SetValue("12345")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Busy())
	assert.Equal(t, gateway.ErrInvalidPhone.Error(), m.errText)
}

func TestSubmitSendsLogin(t *testing.T) {
	auth := &stubAuth{resp: &gateway.LoginResponse{
		Token: "tok",
		User:  gateway.User{Name: "Aisha"},
	}}
	m := New(styles.NewTheme(), auth)
	m.input.SetValue("080-1234-5678")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Busy())
	require.NotNil(t, cmd)

	msg := cmd()
	complete, ok := msg.(CompleteMsg)
	require.True(t, ok)
	require.NoError(t, complete.Err)
	assert.Equal(t, "tok", complete.Response.Token)
	assert.Equal(t, "080-1234-5678", auth.phone)

	m, _ = m.Update(complete)
	assert.False(t, m.Busy())
}

func TestLoginFailureShowsError(t *testing.T) {
	m := New(styles.NewTheme(), &stubAuth{err: errors.New("dial tcp: refused")})
	m.input.SetValue("0801234567")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd().(CompleteMsg))
	assert.Contains(t, m.errText, "Login failed")
}

func TestViewShowsBranding(t *testing.T) {
	m := New(styles.NewTheme(), &stubAuth{})
	m.width = 80
	m.height = 24
	assert.Contains(t, m.View(), "MediGuide")
	assert.Contains(t, m.View(), "phone number")
}
