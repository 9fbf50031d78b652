// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for agentui.
//
// # Components
//
//   - Panel: the agent-controlled widgets (content card, upload, buttons)
//   - Transcript: the chat history, with glamour for finished replies
//   - Header: title bar with agent URL and session id
//   - StatusBar: status, turn count and key hints
//   - Spinner: in-flight indicator
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	panel := components.NewPanel(theme)
//	panel.SetWidth(width)
//	view := panel.View(session.UI().State())
//
// Components hold no locks; the bubbletea model owns them and calls them
// from its Update and View methods only.
package components
