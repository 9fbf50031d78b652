// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/agentui/internal/uistate"
)

// JSONResponse is the response envelope every command prints with --json.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response. data may carry
// whatever the command produced before failing.
func NewJSONErrorResponse(command string, err error, data interface{}) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData is printed by ask --json.
type AskData struct {
	SessionID  string          `json:"session_id"`
	Reply      string          `json:"reply"`
	Final      bool            `json:"final"`
	UI         uistate.UIState `json:"ui"`
	Frames     int             `json:"frames"`
	Dropped    int             `json:"dropped"`
	DurationMs int64           `json:"duration_ms"`
}

// ReplayData is printed by replay --json.
type ReplayData struct {
	File        string          `json:"file"`
	Reply       string          `json:"reply"`
	Final       bool            `json:"final"`
	Done        bool            `json:"done"`
	UI          uistate.UIState `json:"ui"`
	Frames      int             `json:"frames"`
	Dropped     int             `json:"dropped"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}

// StatusData is printed by status --json.
type StatusData struct {
	AgentURL   string `json:"agent_url"`
	Reachable  bool   `json:"reachable"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
	ConfigPath string `json:"config_path"`
	ConfigFile bool   `json:"config_file_exists"`
	APIKeySet  bool   `json:"api_key_configured"`
	Theme      string `json:"theme"`
	LogLevel   string `json:"log_level"`
}

// VersionData is printed by version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
