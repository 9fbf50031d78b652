// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across agentui.
//
// # Key Functions
//
// String Utilities:
//   - StringWidth, TruncateWidth, PadRight: column-aware text fitting
//   - FirstLine: single-line summaries of multi-line text
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - WatchFile: debounced change notifications for one file
//
// # Usage
//
//	label := util.TruncateWidth(button.Label, 20)
//
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	err := util.WatchFile(ctx, path, 100*time.Millisecond, func() {
//	    reload()
//	})
package util
