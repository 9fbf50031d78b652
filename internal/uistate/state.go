// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import "sort"

// =============================================================================
// ENUMERATIONS
// =============================================================================

// UploadStatus is the lifecycle state of the media upload widget.
// The expected flow is idle -> uploading -> completed|error -> idle, but the
// manager records whatever the server asserts.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
)

// Valid reports whether s is one of the known upload statuses.
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadIdle, UploadUploading, UploadCompleted, UploadError:
		return true
	}
	return false
}

// ButtonStyle selects the visual treatment of a button.
type ButtonStyle string

const (
	ButtonPrimary   ButtonStyle = "primary"
	ButtonSecondary ButtonStyle = "secondary"
	ButtonDanger    ButtonStyle = "danger"
)

// Valid reports whether s is one of the known button styles.
func (s ButtonStyle) Valid() bool {
	switch s {
	case ButtonPrimary, ButtonSecondary, ButtonDanger:
		return true
	}
	return false
}

// DefaultAcceptedTypes is used when show-upload carries no accept pattern.
var DefaultAcceptedTypes = []string{"image/*"}

// =============================================================================
// STATE TREE
// =============================================================================

// UIState is the single render source of truth for one session.
type UIState struct {
	Content     ContentState           `json:"content"`
	MediaUpload MediaUploadState       `json:"mediaUpload"`
	Buttons     map[string]ButtonState `json:"buttons"`
}

// ContentState is the freeform content card.
type ContentState struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// MediaUploadState is the (single) file upload widget.
type MediaUploadState struct {
	Visible       bool         `json:"visible"`
	Status        UploadStatus `json:"status"`
	AcceptedTypes []string     `json:"acceptedTypes"`
	Multiple      bool         `json:"multiple"`
	Label         string       `json:"label"`
}

// ButtonState describes one server-named button.
// Action is an opaque token handed back to the agent when the button is pressed.
type ButtonState struct {
	Visible bool        `json:"visible"`
	Enabled bool        `json:"enabled"`
	Label   string      `json:"label"`
	Action  string      `json:"action"`
	Style   ButtonStyle `json:"style"`
}

// Initial returns the canonical starting state.
func Initial() UIState {
	return UIState{
		Content: ContentState{Visible: false},
		MediaUpload: MediaUploadState{
			Visible:       false,
			Status:        UploadIdle,
			AcceptedTypes: append([]string(nil), DefaultAcceptedTypes...),
			Multiple:      false,
		},
		Buttons: map[string]ButtonState{},
	}
}

// Clone returns a deep copy of s.
func (s UIState) Clone() UIState {
	out := s
	out.MediaUpload = s.MediaUpload.clone()
	out.Buttons = make(map[string]ButtonState, len(s.Buttons))
	for id, b := range s.Buttons {
		out.Buttons[id] = b
	}
	return out
}

func (m MediaUploadState) clone() MediaUploadState {
	out := m
	if m.AcceptedTypes != nil {
		out.AcceptedTypes = append([]string(nil), m.AcceptedTypes...)
	}
	return out
}

// Equal reports structural equality. Nil and empty collections compare equal.
func (s UIState) Equal(other UIState) bool {
	if s.Content != other.Content {
		return false
	}
	if !s.MediaUpload.Equal(other.MediaUpload) {
		return false
	}
	if len(s.Buttons) != len(other.Buttons) {
		return false
	}
	for id, b := range s.Buttons {
		ob, ok := other.Buttons[id]
		if !ok || ob != b {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two upload widgets.
func (m MediaUploadState) Equal(other MediaUploadState) bool {
	if m.Visible != other.Visible || m.Status != other.Status ||
		m.Multiple != other.Multiple || m.Label != other.Label {
		return false
	}
	if len(m.AcceptedTypes) != len(other.AcceptedTypes) {
		return false
	}
	for i := range m.AcceptedTypes {
		if m.AcceptedTypes[i] != other.AcceptedTypes[i] {
			return false
		}
	}
	return true
}

// VisibleButtonIDs returns the ids of visible buttons in sorted order.
func (s UIState) VisibleButtonIDs() []string {
	ids := make([]string, 0, len(s.Buttons))
	for id, b := range s.Buttons {
		if b.Visible {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
