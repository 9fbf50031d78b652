// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// minViewportHeight keeps some transcript visible under a tall panel.
const minViewportHeight = 3

// layout sizes the viewport around the fixed chrome and refreshes its content.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	chrome := lipgloss.Height(m.header.View()) + 1 + lipgloss.Height(m.status.View())
	if panel := m.panel.View(m.ui); panel != "" {
		chrome += lipgloss.Height(panel)
	}
	if m.spinner.IsActive() {
		chrome++
	}

	h := m.height - chrome
	if h < minViewportHeight {
		h = minViewportHeight
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.viewport.SetContent(m.transcript.View())
	if atBottom || m.streaming {
		m.viewport.GotoBottom()
	}
}

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{
		m.header.View(),
		m.viewport.View(),
	}
	if panel := m.panel.View(m.ui); panel != "" {
		sections = append(sections, panel)
	}
	if m.spinner.IsActive() {
		sections = append(sections, m.spinner.View())
	}
	sections = append(sections, m.input.View(), m.status.View())

	return strings.Join(sections, "\n")
}
