// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the MediGuide TUI.

The Bubble Tea model here is a thin shell over session.Manager: key presses
become session calls issued as tea.Cmds, and their results come back as the
message types in messages.go. The session manager owns all conversation
state and the busy gate; the view only mirrors it.

Side panels (history, specialists, feed) overlay the transcript and are
toggled with ctrl+h / ctrl+s / ctrl+f.
*/
package chat
