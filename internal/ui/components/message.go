// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/agentui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT ENTRIES
// =============================================================================

// EntryKind identifies who produced a transcript entry.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAssistant
	EntryError
)

// Entry is one line of the chat transcript.
type Entry struct {
	Kind      EntryKind
	Text      string
	Streaming bool // assistant reply still arriving
}

// streamingCursor trails an assistant reply while it streams.
const streamingCursor = "_"

// =============================================================================
// TRANSCRIPT COMPONENT
// =============================================================================

// Transcript renders chat entries. Finished assistant replies go through
// glamour when markdown is enabled; streaming text stays plain so partial
// markdown does not jump around.
type Transcript struct {
	Entries  []Entry
	Width    int
	Markdown bool
	theme    *styles.Theme

	md      *glamour.TermRenderer
	mdWidth int
}

// NewTranscript creates an empty transcript.
func NewTranscript(theme *styles.Theme, markdown bool) *Transcript {
	return &Transcript{
		Width:    80,
		Markdown: markdown,
		theme:    theme,
	}
}

// SetWidth updates the transcript width.
func (t *Transcript) SetWidth(width int) {
	t.Width = width
}

// Append adds an entry.
func (t *Transcript) Append(e Entry) {
	t.Entries = append(t.Entries, e)
}

// UpdateStreaming replaces the text of the trailing streaming assistant entry,
// starting one if needed. final marks the reply finished.
func (t *Transcript) UpdateStreaming(text string, final bool) {
	n := len(t.Entries)
	if n == 0 || t.Entries[n-1].Kind != EntryAssistant || !t.Entries[n-1].Streaming {
		t.Entries = append(t.Entries, Entry{Kind: EntryAssistant, Streaming: true})
		n++
	}
	t.Entries[n-1].Text = text
	t.Entries[n-1].Streaming = !final
}

// SetReply sets the finished reply to the latest user entry: the assistant
// entry after it is replaced, or one is appended.
func (t *Transcript) SetReply(text string) {
	for i := len(t.Entries) - 1; i >= 0 && t.Entries[i].Kind != EntryUser; i-- {
		if t.Entries[i].Kind == EntryAssistant {
			t.Entries[i].Text = text
			t.Entries[i].Streaming = false
			return
		}
	}
	t.Entries = append(t.Entries, Entry{Kind: EntryAssistant, Text: text})
}

// FinishStreaming marks any trailing streaming entry finished. Empty entries
// are dropped.
func (t *Transcript) FinishStreaming() {
	n := len(t.Entries)
	if n == 0 || !t.Entries[n-1].Streaming {
		return
	}
	if t.Entries[n-1].Text == "" {
		t.Entries = t.Entries[:n-1]
		return
	}
	t.Entries[n-1].Streaming = false
}

// Clear removes every entry.
func (t *Transcript) Clear() {
	t.Entries = nil
}

// View renders every entry separated by a blank line.
func (t *Transcript) View() string {
	parts := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		parts = append(parts, t.renderEntry(e))
	}
	return strings.Join(parts, "\n\n")
}

func (t *Transcript) renderEntry(e Entry) string {
	width := t.Width - 4
	if width < 20 {
		width = 20
	}

	switch e.Kind {
	case EntryUser:
		return t.theme.UserMessage.Width(width).Render(e.Text)
	case EntryError:
		return t.theme.ErrorBox.Width(width).Render(styles.StatusIndicators.Error + " " + e.Text)
	}

	if e.Streaming {
		return t.theme.AssistantMessage.Width(width).Render(e.Text + streamingCursor)
	}
	if t.Markdown {
		if out, ok := t.renderMarkdown(e.Text, width); ok {
			return out
		}
	}
	return t.theme.AssistantMessage.Width(width).Render(e.Text)
}

// renderMarkdown renders text with a glamour renderer sized to width. The
// renderer is rebuilt only when the width changes.
func (t *Transcript) renderMarkdown(text string, width int) (string, bool) {
	if t.md == nil || t.mdWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(t.markdownStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		t.md, t.mdWidth = r, width
	}
	out, err := t.md.Render(text)
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}

func (t *Transcript) markdownStyle() string {
	switch {
	case t.theme.ColorProfile == termenv.Ascii:
		return "notty"
	case t.theme.IsDark:
		return "dark"
	default:
		return "light"
	}
}
