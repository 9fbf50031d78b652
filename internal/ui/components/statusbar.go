// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusUploading
	StatusCancelled
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusUploading:
		return "Uploading..."
	case StatusCancelled:
		return "Cancelled"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a text indicator for the status so it reads without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming, StatusUploading:
		return styles.StatusIndicators.Active
	case StatusCancelled:
		return styles.StatusIndicators.Warning
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar represents the bottom status bar.
type StatusBar struct {
	Status    Status
	Message   string // Optional detail, e.g. the last error
	Turns     int
	Width     int
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status and its detail message.
func (s *StatusBar) SetStatus(status Status, message string) {
	s.Status = status
	s.Message = message
}

// View renders the status bar. Shortcuts are dropped on narrow terminals.
func (s *StatusBar) View() string {
	left := s.Status.Icon() + " " + s.Status.String()
	if s.Message != "" {
		left += ": " + s.Message
	}
	if s.Turns > 0 {
		left += " | turns " + strconv.Itoa(s.Turns)
	}

	var right []string
	if s.Width >= 60 {
		for _, sc := range s.Shortcuts {
			right = append(right, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
		}
	}
	rightText := strings.Join(right, "  ")

	// two columns of padding plus a gap between the halves
	room := s.Width - 4 - lipgloss.Width(rightText)
	if room < 10 {
		rightText = ""
		room = s.Width - 3
	}
	left = util.TruncateWidth(left, room)

	gap := s.Width - 2 - lipgloss.Width(left) - lipgloss.Width(rightText)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + rightText

	return s.theme.StatusBar.Width(s.Width).Render(line)
}
