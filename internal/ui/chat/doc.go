// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive chat view for agentui.
//
// The view shows the transcript, the agent-controlled panel (content card,
// upload widget, buttons) and an input line. Replies stream into the
// transcript while the panel tracks the session's UI state.
//
// # Key Types
//
//   - Model: the Bubble Tea model
//   - Backend: what the model drives; *session.Session implements it
//   - KeyMap: keyboard bindings
//
// # Usage
//
//	m := chat.New(sess, chat.Config{Theme: theme, AgentURL: url, Markdown: true})
//	defer m.Close()
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
//
// # Keys
//
// enter sends the input, or presses the focused button when the input is
// empty. tab and shift+tab move button focus. ctrl+o asks for a file path
// when the upload widget is visible. esc leaves path entry, cancels the
// streaming turn, or cancels the upload, in that order.
package chat
