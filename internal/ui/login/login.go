// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the phone-number login screen.
//
// Login is a single text field: the user enters a phone number, it is
// validated locally (at least 10 digits), and the backend returns a bearer
// token. The root model watches for CompleteMsg to store credentials and
// switch to the chat view.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// Authenticator is the gateway subset the login screen needs.
type Authenticator interface {
	Login(ctx context.Context, phone string) (*gateway.LoginResponse, error)
}

// CompleteMsg signals a finished login attempt.
type CompleteMsg struct {
	Response *gateway.LoginResponse
	Err      error
}

// Model is the Bubble Tea model for the login screen.
type Model struct {
	theme *styles.Theme
	auth  Authenticator

	input   textinput.Model
	busy    bool
	errText string

	width  int
	height int
}

// New creates a login model.
func New(theme *styles.Theme, auth Authenticator) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Phone number (e.g. 080-1234-5678)"
	ti.CharLimit = 32
	ti.Focus()

	return Model{
		theme:  theme,
		auth:   auth,
		input:  ti,
		width:  80,
		height: 24,
	}
}

// Init initializes the login model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Busy reports whether a login request is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// Update handles messages for the login model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case CompleteMsg:
		m.busy = false
		if msg.Err != nil {
			if errors.Is(msg.Err, gateway.ErrInvalidPhone) {
				m.errText = msg.Err.Error()
			} else {
				m.errText = "Login failed. Please check your connection and try again."
			}
			return m, nil
		}
		// The root model consumes the successful CompleteMsg.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit validates and sends the login request.
func (m Model) submit() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	phone := strings.TrimSpace(m.input.Value())
	if err := gateway.ValidatePhone(phone); err != nil {
		m.errText = err.Error()
		return m, nil
	}

	m.busy = true
	m.errText = ""

	auth := m.auth
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := auth.Login(ctx, phone)
		return CompleteMsg{Response: resp, Err: err}
	}
}

// View renders the login screen.
func (m Model) View() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Teal).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	lines := []string{
		logoStyle.Render("MediGuide"),
		"",
		labelStyle.Render("Sign in with your phone number"),
		"",
		m.input.View(),
		"",
	}

	if m.busy {
		lines = append(lines, hintStyle.Render("Signing in..."))
	} else if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(styles.Rose)
		lines = append(lines, errStyle.Render(m.errText))
	} else {
		lines = append(lines, hintStyle.Render("Press Enter to continue"))
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Teal).
		Padding(1, 4)

	content := box.Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
