// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/ui/components"
	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/uistate"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeBackend struct {
	ui *uistate.Manager

	mu        sync.Mutex
	reply     string
	sendErr   error
	block     bool
	sent      []string
	pressed   []string
	uploads   []string
	cancels   int
	uploadErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{ui: uistate.NewManager(uistate.DefaultConfig()), reply: "Hello there"}
}

func (f *fakeBackend) ID() string            { return "0123456789abcdef" }
func (f *fakeBackend) UI() *uistate.Manager { return f.ui }

func (f *fakeBackend) Send(ctx context.Context, text string, sink stream.TextSink) (stream.Result, error) {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	block, reply, err := f.block, f.reply, f.sendErr
	f.mu.Unlock()

	if block {
		sink.OnText("partial")
		<-ctx.Done()
		return stream.Result{Text: "partial"}, ctx.Err()
	}
	sink.OnText(reply[:len(reply)/2])
	sink.OnFinal(reply)
	return stream.Result{Text: reply, Final: true, Done: true}, err
}

func (f *fakeBackend) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeBackend) PressButton(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, id)
	return nil
}

func (f *fakeBackend) Upload(_ context.Context, path string) (*agent.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, path)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &agent.UploadResult{Name: "receipt.png"}, nil
}

func (f *fakeBackend) CancelUpload(context.Context) error {
	f.ui.ApplyDirective(uistate.CancelUpload{})
	return nil
}

func testTheme() *styles.Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return styles.NewThemeWithRenderer(styles.ModeDark, r)
}

func newTestModel(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := New(b, Config{Theme: testTheme(), AgentURL: "http://agent.test"})
	t.Cleanup(m.Close)
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// updateCmd is update that also returns the command.
func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd, expanding batches, and returns the messages that
// arrive within timeout. Commands that block past it are abandoned.
func runCmd(cmd tea.Cmd, timeout time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(c, timeout)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(timeout):
		return nil
	}
}

// findMsg returns the first message of type T.
func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestModel_InitialView(t *testing.T) {
	m := New(newFakeBackend(), Config{Theme: testTheme()})
	defer m.Close()
	assert.Equal(t, "Initializing...", m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	assert.Contains(t, view, "agentui")
	assert.Contains(t, view, "session 01234567")
	assert.Contains(t, view, "Ready")
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestModel_SendTurn(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	m = typeText(t, m, "hi agent")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.streaming)
	assert.Empty(t, m.input.Value(), "input should clear on send")

	msgs := runCmd(cmd, time.Second)
	done, ok := findMsg[turnDoneMsg](msgs)
	require.True(t, ok, "expected a turnDoneMsg, got %v", msgs)
	require.NoError(t, done.err)

	// the bridge holds the final text before the turn completes
	m = update(t, m, refreshMsg{})
	m = update(t, m, done)

	assert.False(t, m.streaming)
	assert.Equal(t, 1, m.turns)
	assert.Equal(t, []string{"hi agent"}, b.sent)

	require.Len(t, m.transcript.Entries, 2)
	assert.Equal(t, components.EntryUser, m.transcript.Entries[0].Kind)
	assert.Equal(t, "Hello there", m.transcript.Entries[1].Text)
	assert.False(t, m.transcript.Entries[1].Streaming)
	assert.Contains(t, m.View(), "Hello there")
}

func TestModel_TurnErrorShowsReason(t *testing.T) {
	b := newFakeBackend()
	b.sendErr = &stream.TurnError{Partial: "Hel", Err: errors.New("agent exploded")}
	m := newTestModel(t, b)

	m = typeText(t, m, "go")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done, ok := findMsg[turnDoneMsg](runCmd(cmd, time.Second))
	require.True(t, ok)
	m = update(t, m, done)

	last := m.transcript.Entries[len(m.transcript.Entries)-1]
	assert.Equal(t, components.EntryError, last.Kind)
	assert.Equal(t, "agent exploded", last.Text)
	assert.Equal(t, components.StatusError, m.status.Status)
}

func TestModel_EscCancelsStreamingTurn(t *testing.T) {
	b := newFakeBackend()
	b.block = true
	m := newTestModel(t, b)

	m = typeText(t, m, "long question")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	result := make(chan []tea.Msg, 1)
	go func() { result <- runCmd(cmd, 2*time.Second) }()

	// wait until the turn has produced text, then cancel it
	require.Eventually(t, func() bool {
		_, text, _ := m.bridge.snapshot()
		return text == "partial"
	}, time.Second, 5*time.Millisecond)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	msgs := <-result
	done, ok := findMsg[turnDoneMsg](msgs)
	require.True(t, ok, "send should return after cancel")
	assert.ErrorIs(t, done.err, context.Canceled)

	m = update(t, m, done)
	assert.False(t, m.streaming)
	assert.Equal(t, components.StatusCancelled, m.status.Status)
	assert.Equal(t, 1, b.cancels)

	// the partial reply stays in the transcript
	last := m.transcript.Entries[len(m.transcript.Entries)-1]
	assert.Equal(t, "partial", last.Text)
}

func TestModel_StaleTurnDoneIgnored(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	m.streaming = true
	m.turnSeq = 2

	m = update(t, m, turnDoneMsg{seq: 1, result: stream.Result{Text: "old"}})
	assert.True(t, m.streaming, "an older turn must not end the current one")
	assert.Empty(t, m.transcript.Entries)
}

// =============================================================================
// PANEL INTERACTION TESTS
// =============================================================================

func TestModel_StateChangeRendersPanel(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	b.ui.ApplyDirective(uistate.ShowContent{Text: uistate.Ptr("Choose a plan")})
	b.ui.ApplyDirective(uistate.ShowButton{ButtonID: "basic", Label: "Basic"})
	m = update(t, m, refreshMsg{})

	view := m.View()
	assert.Contains(t, view, "Choose a plan")
	assert.Contains(t, view, "> Basic")
}

func TestModel_SubscriptionPokesBridge(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	b.ui.ApplyDirective(uistate.ShowContent{Text: uistate.Ptr("x")})
	select {
	case <-m.bridge.notify:
	default:
		t.Fatal("state change should poke the bridge")
	}

	m.Close()
	b.ui.ApplyDirective(uistate.HideContent{})
	assert.Len(t, m.bridge.notify, 0, "closed model should not be poked")
}

func TestModel_EnterPressesFocusedButton(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)
	b.ui.ApplyDirective(uistate.ShowButton{ButtonID: "a", Label: "A"})
	b.ui.ApplyDirective(uistate.ShowButton{ButtonID: "b", Label: "B"})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.streaming, "empty input must not start a turn")

	done, ok := findMsg[buttonDoneMsg](runCmd(cmd, time.Second))
	require.True(t, ok)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"b"}, b.pressed)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	_, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd, time.Second)
	assert.Equal(t, []string{"b", "a"}, b.pressed)
}

func TestModel_EnterWithoutButtonsDoesNothing(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, runCmd(cmd, 50*time.Millisecond))
	assert.Empty(t, b.sent)
	assert.Empty(t, b.pressed)
}

func TestModel_UploadFlow(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	// ctrl+o is ignored while the widget is hidden
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.False(t, m.pathMode)

	b.ui.ApplyDirective(uistate.ShowUpload{Label: "Send a receipt"})
	m = update(t, m, refreshMsg{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, m.pathMode)
	assert.Equal(t, uploadPlaceholder, m.input.Placeholder)

	m = typeText(t, m, "/tmp/receipt.png")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.pathMode)
	assert.True(t, m.uploading)

	done, ok := findMsg[uploadDoneMsg](runCmd(cmd, time.Second))
	require.True(t, ok)
	m = update(t, m, done)

	assert.False(t, m.uploading)
	assert.Equal(t, []string{"/tmp/receipt.png"}, b.uploads)
	assert.Equal(t, "uploaded receipt.png", m.status.Message)
	assert.Empty(t, b.sent, "a path must not be sent as a chat turn")
}

func TestModel_UploadFailure(t *testing.T) {
	b := newFakeBackend()
	b.uploadErr = errors.New("file too large")
	m := newTestModel(t, b)
	b.ui.ApplyDirective(uistate.ShowUpload{})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = typeText(t, m, "big.bin")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done, ok := findMsg[uploadDoneMsg](runCmd(cmd, time.Second))
	require.True(t, ok)
	m = update(t, m, done)

	assert.Equal(t, components.StatusError, m.status.Status)
	assert.Equal(t, "file too large", m.status.Message)
}

func TestModel_EscOrder(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)
	b.ui.ApplyDirective(uistate.ShowUpload{})

	// first esc leaves path entry
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.pathMode)
	assert.Empty(t, runCmd(cmd, 50*time.Millisecond))
	assert.True(t, b.ui.State().MediaUpload.Visible)

	// second esc cancels the upload widget
	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	msg, ok := findMsg[uploadCancelledMsg](runCmd(cmd, time.Second))
	require.True(t, ok)
	m = update(t, m, msg)

	assert.False(t, b.ui.State().MediaUpload.Visible)
	assert.Equal(t, components.StatusCancelled, m.status.Status)
}

func TestModel_QuitCancelsTurn(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	cancelled := false
	m.turnCancel.set(func() { cancelled = true })

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	_, isQuit := findMsg[tea.QuitMsg](runCmd(cmd, time.Second))
	assert.True(t, isQuit)
	assert.True(t, cancelled)
}

func TestModel_ClearTranscript(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	m.transcript.Append(components.Entry{Kind: components.EntryUser, Text: "x"})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.transcript.Entries)
}

// =============================================================================
// STREAM BRIDGE TESTS
// =============================================================================

func TestStreamBridge_IgnoresOlderTurns(t *testing.T) {
	b := newStreamBridge()
	first := b.begin()
	second := b.begin()

	first.OnText("stale")
	_, text, _ := b.snapshot()
	assert.Empty(t, text)

	second.OnFinal("fresh")
	seq, text, final := b.snapshot()
	assert.Equal(t, second.seq, seq)
	assert.Equal(t, "fresh", text)
	assert.True(t, final)
}

func TestStreamBridge_PokesCoalesce(t *testing.T) {
	b := newStreamBridge()
	sink := b.begin()
	for i := 0; i < 10; i++ {
		sink.OnText(strings.Repeat("x", i))
	}
	assert.Len(t, b.notify, 1)

	msg := b.wait()()
	assert.IsType(t, refreshMsg{}, msg)
	assert.Len(t, b.notify, 0)
}

func TestCancelManager(t *testing.T) {
	cm := newCancelManager()
	calls := 0
	cm.set(func() { calls++ })
	cm.set(func() { calls += 10 }) // replacing cancels the old one
	assert.Equal(t, 1, calls)

	cm.cancel()
	cm.cancel()
	assert.Equal(t, 11, calls)
}
