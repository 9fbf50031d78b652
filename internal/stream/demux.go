// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/uistate"
)

// readBufferSize is the size of each read from the transport.
const readBufferSize = 32 * 1024

// ErrorMarker prefixes the agent's message when a turn ends in an error event.
const ErrorMarker = "[agent error]"

// ErrAgentError is wrapped by the TurnError returned for an error event.
var ErrAgentError = errors.New("agent reported an error")

// =============================================================================
// INTERFACES
// =============================================================================

// Processor consumes UI messages. *uistate.Manager implements it.
type Processor interface {
	ProcessMessage(uistate.Message)
}

// TextSink receives the assistant reply as it streams in.
type TextSink interface {
	// OnText is called with the whole accumulated text after every delta.
	OnText(accumulated string)
	// OnFinal is called with the authoritative reply text.
	OnFinal(text string)
}

// =============================================================================
// RESULTS AND ERRORS
// =============================================================================

// Result summarizes one processed turn.
type Result struct {
	// Text is the final text if one arrived, else the accumulated deltas.
	// After an error event it carries the ErrorMarker annotation.
	Text string
	// Final is true when a response-messages event supplied Text.
	Final bool
	// Frames counts frames with a payload, Dropped the malformed or
	// oversized ones among them.
	Frames  int
	Dropped int
	// Done is true when the end-of-stream sentinel was seen.
	Done bool
}

// TurnError is a terminal failure of a turn. Partial holds the reply text
// received before the failure; UI state already applied is kept.
type TurnError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("turn failed (partial text received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("turn failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TurnError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DEMULTIPLEXER
// =============================================================================

// Demux routes the frames of one agent stream: UI messages go to the
// Processor, reply text to the TextSink.
type Demux struct {
	proc   Processor
	sink   TextSink
	logger *zap.Logger
}

// New creates a demultiplexer. sink and logger may be nil.
func New(proc Processor, sink TextSink, logger *zap.Logger) *Demux {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Demux{
		proc:   proc,
		sink:   sink,
		logger: logger.Named("stream"),
	}
}

type readResult struct {
	data []byte
	err  error
}

// Run processes a live stream until the end-of-stream sentinel, EOF, an
// error event or ctx cancellation. On cancellation r is closed if it is an
// io.Closer and the returned TurnError wraps ctx.Err(). A reader that is
// not an io.Closer cannot be interrupted: Run still returns promptly, but
// the internal read goroutine stays blocked until its pending Read returns.
func (d *Demux) Run(ctx context.Context, r io.Reader) (Result, error) {
	t := d.newTurn()
	dec := NewFrameDecoder()

	chunks := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go pump(r, chunks, stop)

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			t.res.Dropped += dec.Discarded()
			return t.fail(ctx.Err())

		case rr := <-chunks:
			if len(rr.data) > 0 {
				if t.handleAll(dec.Feed(rr.data)) {
					if t.err == nil {
						t.handleAll(dec.Flush())
					}
					t.res.Dropped += dec.Discarded()
					return t.finish()
				}
			}
			if rr.err == nil {
				continue
			}
			t.handleAll(dec.Flush())
			t.res.Dropped += dec.Discarded()
			if errors.Is(rr.err, io.EOF) || t.err != nil {
				return t.finish()
			}
			return t.fail(fmt.Errorf("read stream: %w", rr.err))
		}
	}
}

// ProcessBody processes a complete, already received stream body.
func (d *Demux) ProcessBody(body string) (Result, error) {
	t := d.newTurn()
	t.handleAll(SplitFrames(body))
	return t.finish()
}

// pump reads r until it fails, handing each chunk to out. It exits once stop
// is closed and the current Read returns.
func pump(r io.Reader, out chan<- readResult, stop <-chan struct{}) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), buf[:n]...)
		}
		select {
		case out <- readResult{data: data, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// =============================================================================
// TURN STATE
// =============================================================================

type turn struct {
	d     *Demux
	res   Result
	text  strings.Builder
	final string
	done  bool

	err    error
	errMsg string
}

func (d *Demux) newTurn() *turn {
	return &turn{d: d}
}

// handleAll processes payloads in order and reports whether the turn has
// reached a terminal event. Frames after the sentinel in the same batch are
// still processed; nothing is processed after an error event.
func (t *turn) handleAll(payloads [][]byte) bool {
	for _, p := range payloads {
		if t.err != nil {
			break
		}
		t.handle(p)
	}
	return t.done || t.err != nil
}

func (t *turn) handle(payload []byte) {
	t.res.Frames++
	ev, err := DecodeEvent(payload)
	if err != nil {
		t.res.Dropped++
		t.d.logger.Debug("dropping frame", zap.Error(err), zap.Int("bytes", len(payload)))
		return
	}

	switch e := ev.(type) {
	case DoneEvent:
		t.done = true
	case UIEvent:
		if t.d.proc != nil {
			t.d.proc.ProcessMessage(e.Message)
		}
	case TextDeltaEvent:
		t.text.WriteString(e.Content)
		if t.d.sink != nil {
			t.d.sink.OnText(t.text.String())
		}
	case ResponseMessagesEvent:
		if !e.HasText {
			return
		}
		t.final = e.Text
		t.res.Final = true
		if t.d.sink != nil {
			t.d.sink.OnFinal(e.Text)
		}
	case ErrorEvent:
		t.errMsg = e.Content
		t.err = fmt.Errorf("%w: %s", ErrAgentError, e.Content)
		t.d.logger.Debug("agent error event", zap.String("content", e.Content))
	}
}

func (t *turn) replyText() string {
	if t.res.Final {
		return t.final
	}
	return t.text.String()
}

func (t *turn) finish() (Result, error) {
	t.res.Done = t.done
	if t.err != nil {
		return t.fail(t.err)
	}
	t.res.Text = t.replyText()
	return t.res, nil
}

// fail ends the turn with err. Agent errors annotate the partial text.
func (t *turn) fail(err error) (Result, error) {
	partial := t.replyText()
	t.res.Done = t.done
	t.res.Text = partial
	if errors.Is(err, ErrAgentError) {
		t.res.Text = annotate(partial, t.errMsg)
	}
	return t.res, &TurnError{Partial: partial, Err: err}
}

func annotate(partial, msg string) string {
	note := ErrorMarker
	if msg != "" {
		note += " " + msg
	}
	if partial == "" {
		return note
	}
	return partial + "\n\n" + note
}

// =============================================================================
// TEXT BUFFER
// =============================================================================

// TextBuffer is a TextSink that keeps the latest text for readers on other
// goroutines. OnChange, if set, is called after every update.
type TextBuffer struct {
	mu       sync.Mutex
	text     string
	final    bool
	OnChange func(text string, final bool)
}

// OnText implements TextSink.
func (b *TextBuffer) OnText(accumulated string) {
	b.mu.Lock()
	if b.final {
		b.mu.Unlock()
		return
	}
	b.text = accumulated
	fn := b.OnChange
	b.mu.Unlock()
	if fn != nil {
		fn(accumulated, false)
	}
}

// OnFinal implements TextSink.
func (b *TextBuffer) OnFinal(text string) {
	b.mu.Lock()
	b.text, b.final = text, true
	fn := b.OnChange
	b.mu.Unlock()
	if fn != nil {
		fn(text, true)
	}
}

// Text returns the current text and whether it is final.
func (b *TextBuffer) Text() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.final
}
