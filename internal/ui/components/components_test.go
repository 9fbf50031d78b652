// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/uistate"
)

func testTheme() *styles.Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return styles.NewThemeWithRenderer(styles.ModeDark, r)
}

func stateWithButtons(buttons map[string]uistate.ButtonState) uistate.UIState {
	s := uistate.Initial()
	for id, b := range buttons {
		s.Buttons[id] = b
	}
	return s
}

// =============================================================================
// PANEL TESTS
// =============================================================================

func TestPanel_EmptyState(t *testing.T) {
	p := NewPanel(testTheme())
	if got := p.View(uistate.Initial()); got != "" {
		t.Errorf("View(initial) = %q, want empty", got)
	}
}

func TestPanel_ContentCard(t *testing.T) {
	p := NewPanel(testTheme())
	s := uistate.Initial()
	s.Content = uistate.ContentState{Text: "Pick a plan", Visible: true}

	got := p.View(s)
	if !strings.Contains(got, "Pick a plan") {
		t.Errorf("content card missing text: %q", got)
	}

	s.Content.Visible = false
	if got := p.View(s); got != "" {
		t.Errorf("hidden content rendered: %q", got)
	}
}

func TestRenderPanel(t *testing.T) {
	s := stateWithButtons(map[string]uistate.ButtonState{
		"ok": {Label: "Confirm", Visible: true, Enabled: true},
	})
	s.Content = uistate.ContentState{Text: "Order ready", Visible: true}

	got := RenderPanel(s, testTheme(), 60)
	if !strings.Contains(got, "Order ready") || !strings.Contains(got, "> Confirm") {
		t.Errorf("RenderPanel = %q", got)
	}
	if RenderPanel(uistate.Initial(), testTheme(), 60) != "" {
		t.Error("RenderPanel(initial) should be empty")
	}
}

func TestPanel_UploadWidget(t *testing.T) {
	p := NewPanel(testTheme())
	s := uistate.Initial()
	s.MediaUpload = uistate.MediaUploadState{
		Visible:       true,
		Status:        uistate.UploadIdle,
		AcceptedTypes: []string{"image/*", ".pdf"},
		Multiple:      true,
		Label:         "Send a receipt",
	}

	got := p.View(s)
	for _, want := range []string{"Send a receipt", "image/*, .pdf", "(multiple)", styles.StatusIndicators.Pending} {
		if !strings.Contains(got, want) {
			t.Errorf("upload widget missing %q:\n%s", want, got)
		}
	}

	s.MediaUpload.Label = ""
	if got := p.View(s); !strings.Contains(got, defaultUploadTitle) {
		t.Errorf("unlabeled upload should use the default title:\n%s", got)
	}
}

func TestUploadStatusText(t *testing.T) {
	tests := []struct {
		status uistate.UploadStatus
		want   string
	}{
		{uistate.UploadIdle, "choose a file"},
		{uistate.UploadUploading, "uploading"},
		{uistate.UploadCompleted, "upload complete"},
		{uistate.UploadError, "upload failed"},
	}
	for _, tt := range tests {
		if got := UploadStatusText(tt.status); !strings.Contains(got, tt.want) {
			t.Errorf("UploadStatusText(%q) = %q, want it to contain %q", tt.status, got, tt.want)
		}
	}
}

func TestPanel_ButtonsInSortedOrder(t *testing.T) {
	p := NewPanel(testTheme())
	s := stateWithButtons(map[string]uistate.ButtonState{
		"zeta":  {Visible: true, Enabled: true, Label: "Zeta"},
		"alpha": {Visible: true, Enabled: true, Label: "Alpha"},
		"gone":  {Visible: false, Enabled: true, Label: "Gone"},
	})

	got := p.View(s)
	a, z := strings.Index(got, "Alpha"), strings.Index(got, "Zeta")
	if a < 0 || z < 0 || a > z {
		t.Errorf("buttons not in id order:\n%s", got)
	}
	if strings.Contains(got, "Gone") {
		t.Errorf("hidden button rendered:\n%s", got)
	}
	// the first enabled button holds focus by default
	if !strings.Contains(got, "> Alpha") {
		t.Errorf("first button should be focused:\n%s", got)
	}
}

func TestPanel_DisabledButton(t *testing.T) {
	p := NewPanel(testTheme())
	s := stateWithButtons(map[string]uistate.ButtonState{
		"a": {Visible: true, Enabled: false, Label: "Locked"},
		"b": {Visible: true, Enabled: true, Label: "Open"},
	})

	got := p.View(s)
	if !strings.Contains(got, "Locked (off)") {
		t.Errorf("disabled button not marked:\n%s", got)
	}
	if id, ok := p.FocusedButton(s); !ok || id != "b" {
		t.Errorf("FocusedButton = %q, %v; want b, true", id, ok)
	}
}

func TestPanel_LabelFallbackAndTruncation(t *testing.T) {
	p := NewPanel(testTheme())
	long := strings.Repeat("x", MaxButtonLabel+10)
	s := stateWithButtons(map[string]uistate.ButtonState{
		"confirm": {Visible: true, Enabled: true},
		"long":    {Visible: true, Enabled: true, Label: long},
	})

	got := p.View(s)
	if !strings.Contains(got, "confirm") {
		t.Errorf("label should fall back to the id:\n%s", got)
	}
	if strings.Contains(got, long) {
		t.Errorf("long label was not truncated:\n%s", got)
	}
}

func TestPanel_ButtonsWrap(t *testing.T) {
	p := NewPanel(testTheme())
	p.SetWidth(30)
	s := stateWithButtons(map[string]uistate.ButtonState{
		"a": {Visible: true, Enabled: true, Label: "First choice"},
		"b": {Visible: true, Enabled: true, Label: "Second choice"},
		"c": {Visible: true, Enabled: true, Label: "Third choice"},
	})

	got := p.View(s)
	if lines := strings.Count(got, "\n") + 1; lines < 2 {
		t.Errorf("expected buttons to wrap at width 30, got %d line(s):\n%s", lines, got)
	}
	for _, line := range strings.Split(got, "\n") {
		if w := lipgloss.Width(line); w > 30 {
			t.Errorf("line wider than panel (%d): %q", w, line)
		}
	}
}

func TestPanel_FocusCycle(t *testing.T) {
	p := NewPanel(testTheme())
	s := stateWithButtons(map[string]uistate.ButtonState{
		"a": {Visible: true, Enabled: true},
		"b": {Visible: true, Enabled: false},
		"c": {Visible: true, Enabled: true},
	})

	steps := []struct {
		move func(uistate.UIState)
		want string
	}{
		{p.FocusNext, "c"},
		{p.FocusNext, "a"},
		{p.FocusPrev, "c"},
		{p.FocusPrev, "a"},
	}
	for i, step := range steps {
		step.move(s)
		if got, _ := p.FocusedButton(s); got != step.want {
			t.Fatalf("step %d: focus = %q, want %q", i, got, step.want)
		}
	}

	// focus falls back when the focused button disappears
	p.FocusNext(s) // c
	delete(s.Buttons, "c")
	if got, _ := p.FocusedButton(s); got != "a" {
		t.Errorf("focus after removal = %q, want a", got)
	}
}

func TestPanel_NoFocusableButtons(t *testing.T) {
	p := NewPanel(testTheme())
	s := stateWithButtons(map[string]uistate.ButtonState{
		"a": {Visible: true, Enabled: false},
	})
	p.FocusNext(s)
	if _, ok := p.FocusedButton(s); ok {
		t.Error("disabled buttons should not take focus")
	}
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader_View(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(80)
	h.SetSession("http://localhost:8787", "0123456789abcdef")

	got := h.View()
	for _, want := range []string{"agentui", "http://localhost:8787", "session 01234567"} {
		if !strings.Contains(got, want) {
			t.Errorf("header missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "89abcdef") {
		t.Errorf("header should shorten the session id: %q", got)
	}
}

func TestHeader_Narrow(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(24)
	h.SetSession("http://a-very-long-agent-hostname.example.com", "abc")

	for _, line := range strings.Split(h.View(), "\n") {
		if w := lipgloss.Width(line); w > 24 {
			t.Errorf("header line wider than 24 (%d): %q", w, line)
		}
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusStreaming, "Streaming..."},
		{StatusUploading, "Uploading..."},
		{StatusCancelled, "Cancelled"},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusBar_View(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(100)
	sb.Turns = 3
	sb.Shortcuts = []Shortcut{{Key: "tab", Desc: "focus"}, {Key: "esc", Desc: "cancel"}}
	sb.SetStatus(StatusError, "agent unreachable")

	got := sb.View()
	for _, want := range []string{"[X] Error: agent unreachable", "turns 3", "tab focus", "esc cancel"} {
		if !strings.Contains(got, want) {
			t.Errorf("status bar missing %q: %q", want, got)
		}
	}
}

func TestStatusBar_NarrowDropsShortcuts(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(40)
	sb.Shortcuts = []Shortcut{{Key: "tab", Desc: "focus"}}

	got := sb.View()
	if strings.Contains(got, "focus") {
		t.Errorf("narrow status bar should hide shortcuts: %q", got)
	}
	if !strings.Contains(got, "Ready") {
		t.Errorf("status missing: %q", got)
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_Streaming(t *testing.T) {
	tr := NewTranscript(testTheme(), false)
	tr.Append(Entry{Kind: EntryUser, Text: "hi"})

	tr.UpdateStreaming("Hel", false)
	tr.UpdateStreaming("Hello", false)
	if len(tr.Entries) != 2 {
		t.Fatalf("streaming updates should share one entry, got %d entries", len(tr.Entries))
	}
	if got := tr.View(); !strings.Contains(got, "Hello"+streamingCursor) {
		t.Errorf("streaming entry should show the cursor: %q", got)
	}

	tr.UpdateStreaming("Hello there", true)
	if tr.Entries[1].Streaming {
		t.Error("final update should finish the entry")
	}
	if got := tr.View(); strings.Contains(got, "there"+streamingCursor) {
		t.Errorf("finished entry kept the cursor: %q", got)
	}

	// the next turn starts a new entry
	tr.UpdateStreaming("Again", false)
	if len(tr.Entries) != 3 {
		t.Errorf("new turn should append, got %d entries", len(tr.Entries))
	}
}

func TestTranscript_FinishStreaming(t *testing.T) {
	tr := NewTranscript(testTheme(), false)
	tr.UpdateStreaming("", false)
	tr.FinishStreaming()
	if len(tr.Entries) != 0 {
		t.Errorf("empty streaming entry should be dropped, got %+v", tr.Entries)
	}

	tr.UpdateStreaming("partial", false)
	tr.FinishStreaming()
	if len(tr.Entries) != 1 || tr.Entries[0].Streaming {
		t.Errorf("partial entry should be kept and finished, got %+v", tr.Entries)
	}
}

func TestTranscript_ErrorEntry(t *testing.T) {
	tr := NewTranscript(testTheme(), false)
	tr.Append(Entry{Kind: EntryError, Text: "connection refused"})

	got := tr.View()
	if !strings.Contains(got, "[X] connection refused") {
		t.Errorf("error entry = %q", got)
	}
	tr.Clear()
	if tr.View() != "" {
		t.Error("Clear should remove all entries")
	}
}

func TestTranscript_Markdown(t *testing.T) {
	tr := NewTranscript(testTheme(), true)
	tr.SetWidth(60)
	tr.Append(Entry{Kind: EntryAssistant, Text: "# Title\n\nSome body text."})

	got := tr.View()
	for _, want := range []string{"Title", "Some body text."} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown output missing %q: %q", want, got)
		}
	}
	if tr.markdownStyle() != "notty" {
		t.Errorf("Ascii theme should use the notty style, got %q", tr.markdownStyle())
	}
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinner_Lifecycle(t *testing.T) {
	s := NewSpinner(testTheme())
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	if cmd := s.Start(); cmd == nil {
		t.Error("Start should return a tick command")
	}
	if cmd := s.Start(); cmd != nil {
		t.Error("second Start should be a no-op")
	}
	s.SetMessage("Uploading")
	if got := s.View(); !strings.Contains(got, "Uploading...") {
		t.Errorf("spinner view = %q", got)
	}

	s.Stop()
	if s.IsActive() || s.View() != "" {
		t.Error("stopped spinner should be inactive and empty")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{4 * time.Second, "4s"},
		{65 * time.Second, "1m05s"},
		{10 * time.Minute, "10m00s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTranscript_SetReply(t *testing.T) {
	tr := NewTranscript(testTheme(), false)
	tr.Append(Entry{Kind: EntryUser, Text: "q1"})
	tr.UpdateStreaming("answer", true)

	// replaces the reply already finished by streaming
	tr.SetReply("answer!")
	if len(tr.Entries) != 2 || tr.Entries[1].Text != "answer!" {
		t.Fatalf("SetReply should replace the reply, got %+v", tr.Entries)
	}

	// a new question gets its own reply
	tr.Append(Entry{Kind: EntryUser, Text: "q2"})
	tr.SetReply("second")
	if len(tr.Entries) != 4 || tr.Entries[3].Text != "second" || tr.Entries[3].Streaming {
		t.Errorf("SetReply should append after a user entry, got %+v", tr.Entries)
	}
}
