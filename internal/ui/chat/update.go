// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.panel.SetWidth(msg.Width)
		m.transcript.SetWidth(msg.Width)
		m.input.Width = msg.Width - 4

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case refreshMsg:
		m.syncStream()
		cmds = append(cmds, m.bridge.wait())

	case turnDoneMsg:
		m.handleTurnDone(msg)

	case buttonDoneMsg:
		if msg.err != nil {
			m.logger.Warn("button press failed", zap.String("button", msg.id), zap.Error(msg.err))
			m.status.SetStatus(components.StatusError, msg.err.Error())
		}

	case uploadDoneMsg:
		m.handleUploadDone(msg)

	case uploadCancelledMsg:
		m.uploading = false
		m.stopSpinnerIfIdle()
		if msg.err != nil {
			m.status.SetStatus(components.StatusError, msg.err.Error())
		} else {
			m.status.SetStatus(components.StatusCancelled, "upload")
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.ui = m.backend.UI().State()
	m.layout()
	return m, tea.Batch(cmds...)
}

// handleKey routes a key press.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.turnCancel.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		return m.cancel()

	case key.Matches(msg, m.keys.NextButton):
		m.panel.FocusNext(m.backend.UI().State())
		return m, nil

	case key.Matches(msg, m.keys.PrevButton):
		m.panel.FocusPrev(m.backend.UI().State())
		return m, nil

	case key.Matches(msg, m.keys.Upload):
		state := m.backend.UI().State()
		if state.MediaUpload.Visible && !m.uploading {
			m.pathMode = true
			m.input.Reset()
			m.input.Placeholder = uploadPlaceholder
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.transcript.Clear()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a turn, uploads it as a path, or presses the
// focused button when the input is empty.
func (m Model) submit() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if m.pathMode {
		if text == "" {
			return m, nil
		}
		m.leavePathMode()
		return m.startUpload(text)
	}

	if text == "" {
		id, ok := m.panel.FocusedButton(m.backend.UI().State())
		if !ok {
			return m, nil
		}
		return m, m.pressButton(id)
	}

	m.input.Reset()
	return m.startTurn(text)
}

// cancel backs out of whatever is in progress, innermost first.
func (m Model) cancel() (Model, tea.Cmd) {
	switch {
	case m.pathMode:
		m.leavePathMode()
		return m, nil
	case m.streaming:
		m.turnCancel.cancel()
		m.backend.Cancel()
		return m, nil
	case m.uploading || m.backend.UI().State().MediaUpload.Visible:
		backend := m.backend
		return m, func() tea.Msg {
			return uploadCancelledMsg{err: backend.CancelUpload(context.Background())}
		}
	}
	return m, nil
}

func (m *Model) leavePathMode() {
	m.pathMode = false
	m.input.Reset()
	m.input.Placeholder = chatPlaceholder
}

// =============================================================================
// TURNS
// =============================================================================

// startTurn begins streaming a reply to text.
func (m Model) startTurn(text string) (Model, tea.Cmd) {
	m.transcript.FinishStreaming()
	m.transcript.Append(components.Entry{Kind: components.EntryUser, Text: text})

	sink := m.bridge.begin()
	m.turnSeq = sink.seq
	m.streaming = true
	m.status.SetStatus(components.StatusStreaming, "")
	m.spinner.SetMessage("Waiting for agent")

	ctx, cancel := context.WithCancel(context.Background())
	m.turnCancel.set(cancel)

	backend, seq := m.backend, sink.seq
	send := func() tea.Msg {
		defer cancel()
		res, err := backend.Send(ctx, text, sink)
		return turnDoneMsg{seq: seq, result: res, err: err}
	}
	return m, tea.Batch(send, m.spinner.Start())
}

// syncStream copies the current turn's text into the transcript.
func (m *Model) syncStream() {
	if !m.streaming {
		return
	}
	seq, text, final := m.bridge.snapshot()
	if seq != m.turnSeq || text == "" {
		return
	}
	m.transcript.UpdateStreaming(text, final)
}

func (m *Model) handleTurnDone(msg turnDoneMsg) {
	if msg.seq != m.turnSeq {
		return
	}
	m.streaming = false
	m.turns++
	m.status.Turns = m.turns
	m.stopSpinnerIfIdle()

	if msg.result.Text != "" {
		m.transcript.SetReply(msg.result.Text)
	}
	m.transcript.FinishStreaming()

	switch {
	case msg.err == nil:
		m.status.SetStatus(components.StatusReady, "")
	case errors.Is(msg.err, context.Canceled):
		m.status.SetStatus(components.StatusCancelled, "turn")
	default:
		m.logger.Warn("turn failed", zap.Error(msg.err))
		reason := msg.err.Error()
		var turnErr *stream.TurnError
		if errors.As(msg.err, &turnErr) && turnErr.Err != nil {
			reason = turnErr.Err.Error()
		}
		m.transcript.Append(components.Entry{Kind: components.EntryError, Text: reason})
		m.status.SetStatus(components.StatusError, "turn failed")
	}
}

// =============================================================================
// INTERACTIONS
// =============================================================================

func (m Model) pressButton(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		return buttonDoneMsg{id: id, err: backend.PressButton(context.Background(), id)}
	}
}

func (m Model) startUpload(path string) (Model, tea.Cmd) {
	m.uploading = true
	m.status.SetStatus(components.StatusUploading, filepath.Base(path))
	m.spinner.SetMessage("Uploading " + filepath.Base(path))

	backend := m.backend
	upload := func() tea.Msg {
		res, err := backend.Upload(context.Background(), path)
		return uploadDoneMsg{path: path, result: res, err: err}
	}
	return m, tea.Batch(upload, m.spinner.Start())
}

func (m *Model) handleUploadDone(msg uploadDoneMsg) {
	m.uploading = false
	m.stopSpinnerIfIdle()

	switch {
	case msg.err == nil:
		name := filepath.Base(msg.path)
		if msg.result != nil && msg.result.Name != "" {
			name = msg.result.Name
		}
		m.status.SetStatus(components.StatusReady, "uploaded "+name)
	case errors.Is(msg.err, context.Canceled):
		m.status.SetStatus(components.StatusCancelled, "upload")
	default:
		m.logger.Warn("upload failed", zap.String("path", msg.path), zap.Error(msg.err))
		m.status.SetStatus(components.StatusError, msg.err.Error())
	}
}

func (m *Model) stopSpinnerIfIdle() {
	if !m.streaming && !m.uploading {
		m.spinner.Stop()
	}
}
