// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/uistate"
)

// DefaultMaxHistory is the number of messages kept for the next turn.
const DefaultMaxHistory = 50

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Streamer opens the event stream for one turn. *agent.Client implements it.
type Streamer interface {
	StreamTurn(ctx context.Context, turn agent.TurnRequest) (io.ReadCloser, error)
}

// Uploader sends a file to the agent. *agent.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, path string) (*agent.UploadResult, error)
}

// Config holds configuration for a Session.
type Config struct {
	// UI configures the owned uistate.Manager
	UI uistate.Config

	// Uploader handles Upload; nil disables uploads
	Uploader Uploader

	// OnAction receives user interactions reported upward
	OnAction ActionHandler

	// MaxHistory caps the history sent with each turn (default: 50)
	MaxHistory int

	// Logger receives session diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		UI:         uistate.DefaultConfig(),
		MaxHistory: DefaultMaxHistory,
		Logger:     zap.NewNop(),
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one conversation with the agent. It owns the UI state for the
// conversation and runs at most one turn at a time: starting a turn cancels
// the previous one and resets the UI state.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time

	streamer Streamer
	uploader Uploader
	onAction ActionHandler
	ui       *uistate.Manager
	logger   *zap.Logger

	history    []agent.Message
	maxHistory int
	turns      int

	// in-flight turn
	cancel   context.CancelFunc
	turnDone chan struct{}

	// in-flight upload
	uploadCancel context.CancelFunc

	closed bool
}

// New creates a session that streams turns through s.
func New(s Streamer, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UI.Logger == nil {
		cfg.UI.Logger = logger
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		startTime:  time.Now(),
		streamer:   s,
		uploader:   cfg.Uploader,
		onAction:   cfg.OnAction,
		ui:         uistate.NewManager(cfg.UI),
		logger:     logger.Named("session").With(zap.String("session_id", id)),
		maxHistory: cfg.MaxHistory,
	}
}

// ID returns the session ID sent with every turn.
func (s *Session) ID() string {
	return s.id
}

// UI returns the UI state manager owned by the session.
func (s *Session) UI() *uistate.Manager {
	return s.ui
}

// History returns a copy of the conversation history.
func (s *Session) History() []agent.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]agent.Message(nil), s.history...)
}

// Streaming reports whether a turn is in flight.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnDone != nil
}

// =============================================================================
// TURNS
// =============================================================================

// Send runs one turn: it cancels any in-flight turn, resets the UI state,
// streams the agent's answer into the UI state and sink, and records the
// exchange in the history. The returned error is the transport or stream
// failure, if any; UI state applied before a failure is kept.
func (s *Session) Send(ctx context.Context, text string, sink stream.TextSink) (stream.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return stream.Result{}, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	prev := s.turnDone

	turnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.turnDone = done

	user := agent.Message{Role: agent.RoleUser, Content: text}
	messages := append(append([]agent.Message(nil), s.history...), user)
	s.mu.Unlock()

	defer cancel()

	// The previous demux must stop touching the UI state before the reset.
	if prev != nil {
		<-prev
	}
	s.ui.Reset()

	turnID := uuid.NewString()
	logger := s.logger.With(zap.String("turn_id", turnID))
	logger.Debug("turn started", zap.Int("history", len(messages)-1))

	res, err := s.runTurn(turnCtx, agent.TurnRequest{
		SessionID: s.id,
		TurnID:    turnID,
		Messages:  messages,
	}, sink, logger)

	s.finishTurn(done, user, res)

	switch {
	case err == nil:
		logger.Debug("turn finished",
			zap.Int("frames", res.Frames),
			zap.Int("dropped", res.Dropped),
			zap.Bool("done", res.Done))
	case errors.Is(err, context.Canceled):
		logger.Debug("turn cancelled")
	default:
		logger.Error("turn failed", zap.Error(err))
	}
	return res, err
}

func (s *Session) runTurn(ctx context.Context, req agent.TurnRequest, sink stream.TextSink, logger *zap.Logger) (stream.Result, error) {
	body, err := s.streamer.StreamTurn(ctx, req)
	if err != nil {
		return stream.Result{}, fmt.Errorf("failed to start turn: %w", err)
	}
	defer body.Close()

	return stream.New(s.ui, sink, logger).Run(ctx, body)
}

// finishTurn records the exchange and clears the in-flight markers if this
// turn is still the current one.
func (s *Session) finishTurn(done chan struct{}, user agent.Message, res stream.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns++
	s.history = append(s.history, user)
	if res.Text != "" {
		s.history = append(s.history, agent.Message{Role: agent.RoleAssistant, Content: res.Text})
	}
	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append([]agent.Message(nil), s.history[over:]...)
	}

	if s.turnDone == done {
		s.turnDone = nil
		s.cancel = nil
	}
	close(done)
}

// Cancel aborts the in-flight turn, if any. The UI state it produced so far
// is kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Close cancels in-flight work, waits for the current turn to return and
// stops the UI state timers. Further calls to Send fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.uploadCancel != nil {
		s.uploadCancel()
	}
	done := s.turnDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.ui.Close()
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID string
	StartTime time.Time
	Duration  time.Duration
	Turns     int
	History   int
	Streaming bool
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		SessionID: s.id,
		StartTime: s.startTime,
		Duration:  time.Since(s.startTime),
		Turns:     s.turns,
		History:   len(s.history),
		Streaming: s.turnDone != nil,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
}
