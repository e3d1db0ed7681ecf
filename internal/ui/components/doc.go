// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual UI components for the MediGuide TUI.

Components are plain view structs: the chat model owns the state and calls
SetWidth/View on each render. Only the spinner participates in the Bubble Tea
update loop.

  - MessageBubble / MessageList - chat transcript rendering
  - Header / StatusBar - chrome around the transcript
  - Spinner / ThinkingIndicator - busy states while MediBot replies
  - RecommendationView - specialist recommendation banner
  - HistoryPanel / SpecialistsPanel / FeedPanel - side panels
  - Welcome - first-run screen
*/
package components
