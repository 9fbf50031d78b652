// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/ui/components"
	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/uistate"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the conversation the chat view drives. *session.Session
// implements it.
type Backend interface {
	ID() string
	UI() *uistate.Manager
	Send(ctx context.Context, text string, sink stream.TextSink) (stream.Result, error)
	Cancel()
	PressButton(ctx context.Context, id string) error
	Upload(ctx context.Context, path string) (*agent.UploadResult, error)
	CancelUpload(ctx context.Context) error
}

// Config holds chat view settings.
type Config struct {
	Theme    *styles.Theme
	AgentURL string
	Markdown bool
	Logger   *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

const (
	chatPlaceholder   = "Message the agent..."
	uploadPlaceholder = "Path of the file to upload (esc to go back)"
)

// Model is the Bubble Tea model for the chat view.
type Model struct {
	backend Backend
	theme   *styles.Theme
	keys    KeyMap
	logger  *zap.Logger

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	header     *components.Header
	status     *components.StatusBar
	panel      *components.Panel
	transcript *components.Transcript
	spinner    components.Spinner
	viewport   viewport.Model
	input      textinput.Model

	// Shared across model copies
	bridge      *streamBridge
	turnCancel  *cancelManager
	unsubscribe func()

	// ui is the state snapshot the panel last rendered
	ui uistate.UIState

	streaming bool
	turnSeq   int
	turns     int
	uploading bool
	pathMode  bool
}

// New creates a chat model bound to backend. Call Close when the program
// exits.
func New(backend Backend, cfg Config) Model {
	theme := cfg.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = chatPlaceholder
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 4000
	input.Focus()

	keys := DefaultKeyMap()
	header := components.NewHeader(theme)
	header.SetSession(cfg.AgentURL, backend.ID())
	status := components.NewStatusBar(theme)
	status.Shortcuts = shortcuts(keys.ShortHelp())

	bridge := newStreamBridge()
	unsubscribe := backend.UI().Subscribe(func(uistate.UIState) {
		bridge.poke()
	})

	return Model{
		backend:     backend,
		theme:       theme,
		keys:        keys,
		logger:      logger.Named("chat"),
		header:      header,
		status:      status,
		panel:       components.NewPanel(theme),
		transcript:  components.NewTranscript(theme, cfg.Markdown),
		spinner:     components.NewSpinner(theme),
		viewport:    viewport.New(80, 20),
		input:       input,
		bridge:      bridge,
		turnCancel:  newCancelManager(),
		unsubscribe: unsubscribe,
		ui:          backend.UI().State(),
	}
}

// Init starts the cursor blink and the bridge listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.wait())
}

// Close cancels any in-flight turn and detaches from the UI state.
func (m Model) Close() {
	m.turnCancel.cancel()
	m.unsubscribe()
}
