// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAutoHideDelay is how long a completed upload stays visible.
const DefaultAutoHideDelay = 2000 * time.Millisecond

// Listener receives the new state after every mutation. The value is a copy
// owned by the listener. Listeners may unsubscribe while being called but
// must not mutate the Manager they listen to.
type Listener func(UIState)

// Config holds configuration for a Manager.
type Config struct {
	// AutoHideDelay is the delay before a completed upload is hidden (default: 2s)
	AutoHideDelay time.Duration

	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger

	// OnDiagnostic, if set, is called for every non-fatal delta problem.
	OnDiagnostic func(Diagnostic)
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		AutoHideDelay: DefaultAutoHideDelay,
		Logger:        zap.NewNop(),
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns one UIState and applies protocol messages to it.
//
// Messages are expected from one logical sequence at a time (one stream per
// turn). The mutex exists because the upload auto-hide timer fires on its
// own goroutine.
type Manager struct {
	// deliverMu orders commits together with their notifications so the
	// timer goroutine cannot interleave its delivery with a caller's.
	// Lock order is deliverMu then mu.
	deliverMu sync.Mutex
	mu        sync.Mutex

	state UIState

	listeners  []listenerEntry
	nextListen int

	// Upload auto-hide bookkeeping. uploadGen is bumped whenever the upload
	// sub-tree changes under a pending timer.
	uploadGen     uint64
	autoHide      *time.Timer
	autoHideDelay time.Duration

	logger       *zap.Logger
	onDiagnostic func(Diagnostic)
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewManager creates a manager holding Initial().
func NewManager(cfg Config) *Manager {
	if cfg.AutoHideDelay <= 0 {
		cfg.AutoHideDelay = DefaultAutoHideDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		state:         Initial(),
		autoHideDelay: cfg.AutoHideDelay,
		logger:        cfg.Logger.Named("uistate"),
		onDiagnostic:  cfg.OnDiagnostic,
	}
}

// State returns a copy of the current state.
func (m *Manager) State() UIState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Subscribe registers fn and returns its unsubscribe function. Unsubscribe
// is idempotent and may be called from inside a listener.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	m.nextListen++
	id := m.nextListen
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// ProcessMessage routes msg to the matching apply method. Unknown message
// types are ignored.
func (m *Manager) ProcessMessage(msg Message) {
	switch v := msg.(type) {
	case DirectiveMessage:
		m.ApplyDirective(v.Directive)
	case *DirectiveMessage:
		if v != nil {
			m.ApplyDirective(v.Directive)
		}
	case SnapshotMessage:
		m.ApplySnapshot(v)
	case *SnapshotMessage:
		if v != nil {
			m.ApplySnapshot(*v)
		}
	case DeltaMessage:
		m.ApplyDelta(v)
	case *DeltaMessage:
		if v != nil {
			m.ApplyDelta(*v)
		}
	default:
		if msg != nil {
			m.logger.Debug("ignoring unknown message", zap.String("type", string(msg.MessageType())))
		}
	}
}

// ApplyDirective applies one directive. Unknown actions and directives that
// miss their target are no-ops and do not notify.
func (m *Manager) ApplyDirective(d Directive) {
	if d == nil {
		return
	}
	m.mutate(func(s *UIState) bool {
		return reduceDirective(s, d)
	})
}

func reduceDirective(s *UIState, d Directive) bool {
	switch v := d.(type) {
	case ShowContent:
		s.Content = ContentState{Visible: true, Text: deref(v.Text)}
	case UpdateContent:
		if v.Text != nil {
			s.Content.Text = *v.Text
		}
		if v.Visible != nil {
			s.Content.Visible = *v.Visible
		}
	case HideContent:
		s.Content.Visible = false
	case ShowUpload:
		accepted := append([]string(nil), v.Accept...)
		if len(accepted) == 0 {
			accepted = append(accepted, DefaultAcceptedTypes...)
		}
		multiple := false
		if v.Multiple != nil {
			multiple = *v.Multiple
		}
		s.MediaUpload = MediaUploadState{
			Visible:       true,
			Status:        UploadIdle,
			AcceptedTypes: accepted,
			Multiple:      multiple,
			Label:         v.Label,
		}
	case HideUpload, CancelUpload:
		s.MediaUpload.Visible = false
		s.MediaUpload.Status = UploadIdle
	case ShowButton:
		if v.ButtonID == "" {
			return false
		}
		enabled := true
		if v.Enabled != nil {
			enabled = *v.Enabled
		}
		style := v.Style
		if style == "" {
			style = ButtonPrimary
		}
		s.Buttons[v.ButtonID] = ButtonState{
			Visible: true,
			Enabled: enabled,
			Label:   v.Label,
			Action:  v.Action,
			Style:   style,
		}
	case HideButton:
		b, ok := s.Buttons[v.ButtonID]
		if v.ButtonID == "" || !ok {
			return false
		}
		b.Visible = false
		s.Buttons[v.ButtonID] = b
	case UpdateButton:
		b, ok := s.Buttons[v.ButtonID]
		if v.ButtonID == "" || !ok {
			return false
		}
		if v.Enabled != nil {
			b.Enabled = *v.Enabled
		}
		if v.Label != nil {
			b.Label = *v.Label
		}
		if v.Action != nil {
			b.Action = *v.Action
		}
		if v.Style != nil {
			b.Style = *v.Style
		}
		s.Buttons[v.ButtonID] = b
	default:
		return false
	}
	return true
}

// ApplySnapshot replaces the whole state. Both `{state: S}` and
// `{state: {ui: S}}` are accepted.
func (m *Manager) ApplySnapshot(snap SnapshotMessage) {
	var tree map[string]any
	if err := json.Unmarshal(snap.State, &tree); err != nil || tree == nil {
		m.logger.Debug("ignoring snapshot without object state")
		return
	}
	if inner, ok := tree[namespaceSegment].(map[string]any); ok {
		tree = inner
	}
	next, err := fromTree(tree)
	if err != nil {
		m.logger.Warn("discarding snapshot", zap.Error(err))
		return
	}
	m.mutate(func(s *UIState) bool {
		*s = next
		return true
	})
}

// ApplyDelta applies the patch batch in order and publishes the result once.
// Test mismatches are reported but do not stop the batch.
func (m *Manager) ApplyDelta(delta DeltaMessage) {
	if len(delta.Patch) == 0 {
		return
	}
	var diags []Diagnostic
	m.mutate(func(s *UIState) bool {
		tree, err := toTree(*s)
		if err != nil {
			m.logger.Warn("discarding delta", zap.Error(err))
			return false
		}
		tree, diags = applyPatch(tree, delta.Patch)
		next, err := fromTree(tree)
		if err != nil {
			m.logger.Warn("discarding delta", zap.Error(err), zap.Int("ops", len(delta.Patch)))
			return false
		}
		*s = next
		return true
	})
	for _, d := range diags {
		m.report(d)
	}
}

// Reset restores Initial() and cancels any pending auto-hide.
func (m *Manager) Reset() {
	m.mutate(func(s *UIState) bool {
		*s = Initial()
		return true
	})
	// mutate only bumps the generation when mediaUpload changed; a reset
	// always invalidates the timer.
	m.mu.Lock()
	m.cancelAutoHideLocked()
	m.mu.Unlock()
}

// UpdateMediaUploadStatus records a new upload status. Completed uploads
// are hidden again after the configured delay unless the upload changes
// first.
func (m *Manager) UpdateMediaUploadStatus(status UploadStatus) {
	m.mutate(func(s *UIState) bool {
		s.MediaUpload.Status = status
		return true
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelAutoHideLocked()
	if status != UploadCompleted {
		return
	}
	gen := m.uploadGen
	m.autoHide = time.AfterFunc(m.autoHideDelay, func() {
		m.expireUpload(gen)
	})
}

// Close stops the pending auto-hide timer, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelAutoHideLocked()
}

// expireUpload hides a completed upload if nothing touched it since gen.
func (m *Manager) expireUpload(gen uint64) {
	m.mutate(func(s *UIState) bool {
		if m.uploadGen != gen || s.MediaUpload.Status != UploadCompleted {
			return false
		}
		s.MediaUpload.Visible = false
		s.MediaUpload.Status = UploadIdle
		return true
	})
}

// =============================================================================
// INTERNALS
// =============================================================================

// mutate runs fn on a private copy of the state. When fn reports a change
// the copy becomes the state and listeners are notified outside mu but
// under deliverMu, so the last delivery always carries the current state.
func (m *Manager) mutate(fn func(*UIState) bool) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	next := m.state.Clone()
	if !fn(&next) {
		m.mu.Unlock()
		return
	}
	if !next.MediaUpload.Equal(m.state.MediaUpload) {
		m.cancelAutoHideLocked()
	}
	m.state = next
	listeners := make([]Listener, len(m.listeners))
	for i, l := range m.listeners {
		listeners[i] = l.fn
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}
}

// cancelAutoHideLocked invalidates any scheduled auto-hide. m.mu must be held.
func (m *Manager) cancelAutoHideLocked() {
	m.uploadGen++
	if m.autoHide != nil {
		m.autoHide.Stop()
		m.autoHide = nil
	}
}

func (m *Manager) report(d Diagnostic) {
	m.logger.Warn("state delta diagnostic",
		zap.String("op", string(d.Op)),
		zap.String("path", d.Path),
		zap.String("reason", d.Message),
		zap.Any("expected", d.Expected),
		zap.Any("actual", d.Actual))
	if m.onDiagnostic != nil {
		m.onDiagnostic(d)
	}
}
