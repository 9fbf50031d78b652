// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/stream"
)

// =============================================================================
// ASYNC RESULT MESSAGES
// =============================================================================

// refreshMsg means stream text or UI state changed.
type refreshMsg struct{}

// turnDoneMsg is sent when a turn's stream ends.
type turnDoneMsg struct {
	seq    int
	result stream.Result
	err    error
}

// buttonDoneMsg is sent when a button press has been reported.
type buttonDoneMsg struct {
	id  string
	err error
}

// uploadDoneMsg is sent when an upload finishes or fails.
type uploadDoneMsg struct {
	path   string
	result *agent.UploadResult
	err    error
}

// uploadCancelledMsg is sent after the upload widget was reset.
type uploadCancelledMsg struct {
	err error
}
