// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/uistate"
	"github.com/jeranaias/agentui/internal/util"
)

// =============================================================================
// UI PANEL COMPONENT - Renders the agent-controlled widgets
// =============================================================================

// MaxButtonLabel is the widest a button label may render, in columns.
const MaxButtonLabel = 24

// defaultUploadTitle is shown when show-upload carried no label.
const defaultUploadTitle = "Upload a file"

// Panel renders a UIState snapshot: the content card, the upload widget and
// the button row. It owns keyboard focus over the buttons.
type Panel struct {
	Width int
	theme *styles.Theme

	// focusID is tracked by id so focus survives buttons appearing and
	// disappearing around it
	focusID string
}

// NewPanel creates a new Panel component.
func NewPanel(theme *styles.Theme) *Panel {
	return &Panel{
		Width: 80,
		theme: theme,
	}
}

// RenderPanel renders state once, outside an interactive session. The first
// enabled button shows as focused.
func RenderPanel(state uistate.UIState, theme *styles.Theme, width int) string {
	p := NewPanel(theme)
	p.SetWidth(width)
	return p.View(state)
}

// SetWidth updates the panel width.
func (p *Panel) SetWidth(width int) {
	p.Width = width
}

// =============================================================================
// FOCUS
// =============================================================================

// focusable returns the visible, enabled button ids in display order.
func focusable(state uistate.UIState) []string {
	var ids []string
	for _, id := range state.VisibleButtonIDs() {
		if state.Buttons[id].Enabled {
			ids = append(ids, id)
		}
	}
	return ids
}

// FocusedButton returns the button that enter would press. When the focused
// button has gone away, focus falls back to the first enabled button.
func (p *Panel) FocusedButton(state uistate.UIState) (string, bool) {
	ids := focusable(state)
	if len(ids) == 0 {
		return "", false
	}
	for _, id := range ids {
		if id == p.focusID {
			return id, true
		}
	}
	return ids[0], true
}

// FocusNext moves focus to the next enabled button, wrapping around.
func (p *Panel) FocusNext(state uistate.UIState) {
	p.moveFocus(state, 1)
}

// FocusPrev moves focus to the previous enabled button, wrapping around.
func (p *Panel) FocusPrev(state uistate.UIState) {
	p.moveFocus(state, -1)
}

func (p *Panel) moveFocus(state uistate.UIState, delta int) {
	ids := focusable(state)
	if len(ids) == 0 {
		p.focusID = ""
		return
	}
	current, _ := p.FocusedButton(state)
	idx := 0
	for i, id := range ids {
		if id == current {
			idx = i
			break
		}
	}
	p.focusID = ids[(idx+delta+len(ids))%len(ids)]
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders state. It returns "" when nothing is visible.
func (p *Panel) View(state uistate.UIState) string {
	var sections []string

	if card := p.renderContent(state.Content); card != "" {
		sections = append(sections, card)
	}
	if state.MediaUpload.Visible {
		sections = append(sections, p.renderUpload(state.MediaUpload))
	}
	if row := p.renderButtons(state); row != "" {
		sections = append(sections, row)
	}

	if len(sections) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// innerWidth is the usable width inside a bordered, padded box.
func (p *Panel) innerWidth() int {
	w := p.Width - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (p *Panel) renderContent(c uistate.ContentState) string {
	if !c.Visible || c.Text == "" {
		return ""
	}
	return p.theme.ContentCard.Width(p.innerWidth()).Render(c.Text)
}

func (p *Panel) renderUpload(u uistate.MediaUploadState) string {
	title := u.Label
	if title == "" {
		title = defaultUploadTitle
	}

	accept := "any file"
	if len(u.AcceptedTypes) > 0 {
		accept = strings.Join(u.AcceptedTypes, ", ")
	}
	hint := "accepts: " + accept
	if u.Multiple {
		hint += " (multiple)"
	}

	lines := []string{
		p.theme.UploadTitle.Render(title),
		p.theme.UploadHint.Render(hint),
		p.theme.UploadStatusStyle(u.Status).Render(UploadStatusText(u.Status)),
	}
	return p.theme.UploadBox.Width(p.innerWidth()).Render(strings.Join(lines, "\n"))
}

// UploadStatusText is the indicator and wording for an upload status.
func UploadStatusText(status uistate.UploadStatus) string {
	switch status {
	case uistate.UploadUploading:
		return styles.StatusIndicators.Active + " uploading..."
	case uistate.UploadCompleted:
		return styles.StatusIndicators.Success + " upload complete"
	case uistate.UploadError:
		return styles.StatusIndicators.Error + " upload failed"
	default:
		return styles.StatusIndicators.Pending + " press ctrl+o to choose a file"
	}
}

// renderButtons lays buttons out left to right, wrapping onto a new row when
// the next one would overflow the panel width.
func (p *Panel) renderButtons(state uistate.UIState) string {
	ids := state.VisibleButtonIDs()
	if len(ids) == 0 {
		return ""
	}
	focused, hasFocus := p.FocusedButton(state)

	var rows []string
	var row []string
	rowWidth := 0
	for _, id := range ids {
		b := state.Buttons[id]
		rendered := p.renderButton(id, b, hasFocus && id == focused)
		w := lipgloss.Width(rendered)
		if len(row) > 0 && rowWidth+1+w > p.Width {
			rows = append(rows, strings.Join(row, " "))
			row, rowWidth = nil, 0
		}
		if len(row) > 0 {
			rowWidth++
		}
		row = append(row, rendered)
		rowWidth += w
	}
	rows = append(rows, strings.Join(row, " "))
	return strings.Join(rows, "\n")
}

func (p *Panel) renderButton(id string, b uistate.ButtonState, focused bool) string {
	label := b.Label
	if label == "" {
		label = id
	}
	label = util.TruncateWidth(label, MaxButtonLabel)

	switch {
	case !b.Enabled:
		return p.theme.ButtonDisabled.Render(label + " (off)")
	case focused:
		return p.theme.ButtonFocused.Render("> " + label)
	default:
		return p.theme.ButtonStyle(b.Style).Render(label)
	}
}
