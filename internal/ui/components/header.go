// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/util"
)

// =============================================================================
// HEADER COMPONENT - Title bar with agent and session details
// =============================================================================

// shortIDLen is how much of the session id the header shows.
const shortIDLen = 8

// Header represents the title bar component.
type Header struct {
	Title     string // Main title (default: "agentui")
	AgentURL  string // Agent base URL
	SessionID string // Current session id
	Width     int    // Available width
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "agentui",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSession updates the agent and session shown in the header.
func (h *Header) SetSession(agentURL, sessionID string) {
	h.AgentURL = agentURL
	h.SessionID = sessionID
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	title := h.theme.HeaderTitle.Render(h.Title)

	var details []string
	if h.AgentURL != "" {
		details = append(details, h.AgentURL)
	}
	if h.SessionID != "" {
		id := h.SessionID
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		details = append(details, "session "+id)
	}

	line := title
	if len(details) > 0 {
		// leave room for the title, a separator and the header padding
		room := width - lipgloss.Width(title) - 5
		detail := util.TruncateWidth(strings.Join(details, " | "), room)
		if detail != "" {
			line += "  " + h.theme.HeaderDetail.Render(detail)
		}
	}

	return h.theme.Header.Width(width).Render(line)
}
