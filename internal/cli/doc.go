// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the plain-terminal chat mode for MediGuide.
//
// When stdout is not a TTY capable of running the full-screen interface, or
// when the user passes --plain, MediGuide falls back to a readline-style REPL
// built on liner. The REPL drives the same conversation session as the TUI:
// optimistic message handling, specialist recommendations, and topic tracking
// all behave identically.
//
// Interactive commands during chat:
//
//	/help, /h        Show available commands
//	/new, /n         Start a new conversation
//	/image PATH      Attach an image and send it for analysis
//	/history         Show the current conversation
//	/topics          Show topics detected so far
//	/specialists     List all available specialists
//	/export [path]   Export the conversation as Markdown
//	/quit, /q        Exit
package cli
