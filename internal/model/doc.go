// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Conversation is an append-only log of Messages sharing one server-assigned
// conversation id. Messages are never reordered or rewritten after creation;
// the only post-creation mutation is enrichment (server id, flags) when the
// gateway echo arrives.
package model
