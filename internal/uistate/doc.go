// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package uistate holds the agent-driven UI state and the reducer that
// applies protocol messages to it.
//
// The agent never renders anything itself. It streams messages describing
// which affordances (content card, upload widget, buttons) should be visible
// and in what state; the Manager applies them in order and publishes a fresh
// copy of the state to its subscribers after every change.
//
// # Key Types
//
//   - UIState: the state tree (content, mediaUpload, buttons)
//   - Message: DirectiveMessage, SnapshotMessage or DeltaMessage
//   - Directive: one variant per action (ShowContent, ShowButton, ...)
//   - Manager: owns one UIState, applies messages, notifies listeners
//
// # Usage
//
//	mgr := uistate.NewManager(uistate.DefaultConfig())
//	unsubscribe := mgr.Subscribe(func(s uistate.UIState) {
//	    render(s)
//	})
//	defer unsubscribe()
//
//	msg, err := uistate.DecodeMessage(payload)
//	if err == nil {
//	    mgr.ProcessMessage(msg)
//	}
//
// # Leniency
//
// The reducer is a recorder, not a validator. Unknown message types and
// actions, directives missing their target, and failed patch tests never
// abort processing. Deltas treat move and copy as replace, and a failed test
// op is reported as a Diagnostic while the rest of the batch still applies.
package uistate
