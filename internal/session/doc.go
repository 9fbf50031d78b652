// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties one conversation to its UI state.
//
// A Session owns a uistate.Manager and runs turns against the agent one at a
// time. Each Send cancels the previous turn, waits for it to stop, resets the
// UI state and then streams the new answer through a stream.Demux. User
// interactions with the rendered UI (button presses, uploads) are reported
// upward as opaque UIAction values; the session never decides what they mean.
//
// # Key Types
//
//   - Session: turn lifecycle, history and interactions
//   - Streamer / Uploader: transport seams, implemented by *agent.Client
//   - UIAction / ActionHandler: outbound interaction reports
//
// # Usage
//
//	client := agent.NewClient(cfg.Agent, logger)
//	sess := session.New(client, session.Config{
//	    UI:       uistate.Config{AutoHideDelay: cfg.UI.AutoHideDelay()},
//	    Uploader: client,
//	    OnAction: func(ctx context.Context, a session.UIAction) error {
//	        return nil
//	    },
//	    Logger: logger,
//	})
//	defer sess.Close()
//
//	unsubscribe := sess.UI().Subscribe(render)
//	defer unsubscribe()
//	res, err := sess.Send(ctx, "hello", &stream.TextBuffer{})
package session
