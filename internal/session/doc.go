// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one chat conversation: the message log,
// the server-assigned conversation id, the specialist-recommendation latch,
// the extracted-topic accumulator, and the busy flag.
//
// Nothing else mutates this state. Sends are one-at-a-time: while a send is
// in flight the manager rejects further sends with ErrBusy instead of
// interleaving them. Secondary effects of a successful send (topic
// persistence, specialist lookup) are fire-and-forget: their failures are
// logged and swallowed, never surfaced as chat messages, and never roll back
// the already-appended reply.
package session
