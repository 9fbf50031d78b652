// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/uistate"
)

// Action tokens reported for upload interactions. Button presses report the
// button's own token.
const (
	ActionUploadCompleted = "upload-completed"
	ActionUploadFailed    = "upload-failed"
	ActionUploadCancelled = "upload-cancelled"
)

// Errors returned by user interactions.
var (
	// ErrButtonUnavailable means the button is missing, hidden or disabled.
	ErrButtonUnavailable = errors.New("button not available")

	// ErrUploadUnavailable means the upload widget is hidden or no uploader
	// is configured.
	ErrUploadUnavailable = errors.New("upload not available")

	// ErrUploadBusy means an upload is already in flight.
	ErrUploadBusy = errors.New("upload already in progress")

	// ErrNotAccepted means the file does not match the accepted types.
	ErrNotAccepted = errors.New("file type not accepted")
)

// UIAction is the opaque (token, data) pair reported upward when the user
// interacts with the UI. The session does not interpret it.
type UIAction struct {
	Token string         `json:"actionToken"`
	Data  map[string]any `json:"data,omitempty"`
}

// ActionHandler receives reported actions.
type ActionHandler func(ctx context.Context, action UIAction) error

// ReportAction hands action to the configured handler. Without a handler
// the action is logged and dropped.
func (s *Session) ReportAction(ctx context.Context, action UIAction) error {
	if s.onAction == nil {
		s.logger.Debug("no action handler, dropping action", zap.String("token", action.Token))
		return nil
	}
	if err := s.onAction(ctx, action); err != nil {
		return fmt.Errorf("action %q: %w", action.Token, err)
	}
	return nil
}

// PressButton reports a press of the visible, enabled button id. A button
// without an action token reports "button:<id>".
func (s *Session) PressButton(ctx context.Context, id string) error {
	b, ok := s.ui.State().Buttons[id]
	if !ok || !b.Visible || !b.Enabled {
		return fmt.Errorf("%w: %s", ErrButtonUnavailable, id)
	}
	token := b.Action
	if token == "" {
		token = "button:" + id
	}
	return s.ReportAction(ctx, UIAction{
		Token: token,
		Data:  map[string]any{"buttonId": id},
	})
}

// =============================================================================
// UPLOADS
// =============================================================================

// Upload sends path through the configured Uploader while driving the upload
// widget's status: uploading, then completed or error. The outcome is
// reported as upload-completed or upload-failed. A completed upload hides
// itself after the UI auto-hide delay.
func (s *Session) Upload(ctx context.Context, path string) (*agent.UploadResult, error) {
	state := s.ui.State()
	if s.uploader == nil || !state.MediaUpload.Visible {
		return nil, ErrUploadUnavailable
	}
	if state.MediaUpload.Status == uistate.UploadUploading {
		return nil, ErrUploadBusy
	}
	ok, err := AcceptsFile(state, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (accepts %s)", ErrNotAccepted,
			filepath.Base(path), strings.Join(state.MediaUpload.AcceptedTypes, ", "))
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	s.uploadCancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.uploadCancel = nil
		s.mu.Unlock()
		cancel()
	}()

	s.ui.UpdateMediaUploadStatus(uistate.UploadUploading)
	res, err := s.uploader.Upload(uploadCtx, path)

	if err != nil {
		if uploadCtx.Err() != nil {
			// CancelUpload already reset the widget and reported it
			return nil, uploadCtx.Err()
		}
		s.ui.UpdateMediaUploadStatus(uistate.UploadError)
		s.logger.Warn("upload failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		if reportErr := s.ReportAction(ctx, UIAction{
			Token: ActionUploadFailed,
			Data: map[string]any{
				"name":  filepath.Base(path),
				"error": err.Error(),
			},
		}); reportErr != nil {
			s.logger.Warn("failed to report upload failure", zap.Error(reportErr))
		}
		return nil, err
	}

	s.ui.UpdateMediaUploadStatus(uistate.UploadCompleted)
	data := map[string]any{
		"fileId":      res.ID,
		"name":        res.Name,
		"size":        res.Size,
		"contentType": res.ContentType,
	}
	if res.URL != "" {
		data["url"] = res.URL
	}
	return res, s.ReportAction(ctx, UIAction{Token: ActionUploadCompleted, Data: data})
}

// CancelUpload aborts an in-flight upload, applies cancel-upload to the UI
// state and reports upload-cancelled. It is a no-op when the upload widget
// is hidden.
func (s *Session) CancelUpload(ctx context.Context) error {
	if !s.ui.State().MediaUpload.Visible {
		return nil
	}

	s.mu.Lock()
	if s.uploadCancel != nil {
		s.uploadCancel()
	}
	s.mu.Unlock()

	s.ui.ApplyDirective(uistate.CancelUpload{})
	return s.ReportAction(ctx, UIAction{Token: ActionUploadCancelled})
}

// AcceptsFile reports whether the file at path matches the upload widget's
// accepted types. Patterns may be exact MIME types ("image/png"), wildcards
// ("image/*", "*/*") or extensions (".pdf"). No patterns means anything goes.
func AcceptsFile(state uistate.UIState, path string) (bool, error) {
	patterns := state.MediaUpload.AcceptedTypes
	if len(patterns) == 0 {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}

	name := filepath.Base(path)
	mimeType := agent.DetectContentType(name, head[:n])
	ext := strings.ToLower(filepath.Ext(name))

	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
			continue
		case p == "*" || p == "*/*":
			return true, nil
		case strings.HasPrefix(p, "."):
			if p == ext {
				return true, nil
			}
		case strings.HasSuffix(p, "/*"):
			if strings.HasPrefix(mimeType, strings.TrimSuffix(p, "*")) {
				return true, nil
			}
		case p == mimeType:
			return true, nil
		}
	}
	return false, nil
}
