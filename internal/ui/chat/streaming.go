// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAM BRIDGE
// =============================================================================

// streamBridge carries updates from the turn goroutine and the UI state
// manager into the Bubble Tea loop. Writers store the latest value and poke
// a one-slot channel; the loop wakes on the poke and reads the latest value,
// so bursts of deltas coalesce into one render.
type streamBridge struct {
	mu     sync.Mutex
	seq    int
	text   string
	final  bool
	notify chan struct{}
}

func newStreamBridge() *streamBridge {
	return &streamBridge{notify: make(chan struct{}, 1)}
}

// begin starts a new turn and returns its sink. Writes from older turns'
// sinks are ignored.
func (b *streamBridge) begin() *turnSink {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.text = ""
	b.final = false
	return &turnSink{bridge: b, seq: b.seq}
}

// snapshot returns the current turn's text.
func (b *streamBridge) snapshot() (seq int, text string, final bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq, b.text, b.final
}

func (b *streamBridge) write(seq int, text string, final bool) {
	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.text = text
	b.final = final
	b.mu.Unlock()
	b.poke()
}

// poke wakes the loop without blocking.
func (b *streamBridge) poke() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// wait returns a command that resolves on the next poke.
func (b *streamBridge) wait() tea.Cmd {
	return func() tea.Msg {
		<-b.notify
		return refreshMsg{}
	}
}

// turnSink is the stream.TextSink for one turn.
type turnSink struct {
	bridge *streamBridge
	seq    int
}

func (s *turnSink) OnText(accumulated string) {
	s.bridge.write(s.seq, accumulated, false)
}

func (s *turnSink) OnFinal(text string) {
	s.bridge.write(s.seq, text, true)
}
