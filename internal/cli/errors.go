// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/config"
	"github.com/jeranaias/agentui/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the agent rejected our credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the agent could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a file or endpoint was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitInterrupted indicates the user cancelled the operation
	ExitInterrupted = 130
)

// ErrNotTerminal is returned by commands that need an interactive terminal.
var ErrNotTerminal = errors.New("not a terminal")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "set", "load")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConfigError is a configuration file that could not be loaded or saved.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// reportedError marks an error the command already printed. Execute only
// sets the exit code for it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cfgErr *ConfigError
	var validateErrs config.ValidateErrors
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &validateErrs):
		return ExitConfigError
	case errors.Is(err, agent.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, agent.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ExitNotFoundError
	case errors.Is(err, ErrNotTerminal),
		errors.Is(err, session.ErrNotAccepted),
		errors.Is(err, agent.ErrFileTooLarge):
		return ExitUsageError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ExitNetworkError
	}
	return ExitGeneralError
}
