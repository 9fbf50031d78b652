// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

// Action names as they appear on the wire.
const (
	ActionShowContent   = "show-content"
	ActionUpdateContent = "update-content"
	ActionHideContent   = "hide-content"
	ActionShowUpload    = "show-upload"
	ActionHideUpload    = "hide-upload"
	ActionCancelUpload  = "cancel-upload"
	ActionShowButton    = "show-button"
	ActionHideButton    = "hide-button"
	ActionUpdateButton  = "update-button"
)

// Directive is one imperative UI command. Each action has its own variant
// carrying only the fields that action understands; pointer fields mean
// "absent unless set".
type Directive interface {
	ActionName() string
}

// ShowContent shows the content card. A nil Text shows an empty card.
type ShowContent struct {
	Text *string
}

// UpdateContent merges Text and Visible into the content card when set.
type UpdateContent struct {
	Text    *string
	Visible *bool
}

// HideContent hides the content card, keeping its text.
type HideContent struct{}

// ShowUpload opens the upload widget. Empty Accept falls back to DefaultAcceptedTypes.
type ShowUpload struct {
	Accept   []string
	Multiple *bool
	Label    string
}

// HideUpload closes the upload widget and returns it to idle.
type HideUpload struct{}

// CancelUpload behaves like HideUpload.
type CancelUpload struct{}

// ShowButton creates or replaces a button.
type ShowButton struct {
	ButtonID string
	Enabled  *bool
	Label    string
	Action   string
	Style    ButtonStyle
}

// HideButton hides an existing button, preserving its other fields.
type HideButton struct {
	ButtonID string
}

// UpdateButton merges the set fields into an existing button.
type UpdateButton struct {
	ButtonID string
	Enabled  *bool
	Label    *string
	Action   *string
	Style    *ButtonStyle
}

// UnknownDirective carries an action this client does not understand.
// Applying it is a no-op.
type UnknownDirective struct {
	Name string
}

func (ShowContent) ActionName() string        { return ActionShowContent }
func (UpdateContent) ActionName() string      { return ActionUpdateContent }
func (HideContent) ActionName() string        { return ActionHideContent }
func (ShowUpload) ActionName() string         { return ActionShowUpload }
func (HideUpload) ActionName() string         { return ActionHideUpload }
func (CancelUpload) ActionName() string       { return ActionCancelUpload }
func (ShowButton) ActionName() string         { return ActionShowButton }
func (HideButton) ActionName() string         { return ActionHideButton }
func (UpdateButton) ActionName() string       { return ActionUpdateButton }
func (d UnknownDirective) ActionName() string { return d.Name }

// =============================================================================
// WIRE PROPS
// =============================================================================

// wireProps is the loosely-typed props bag as sent by the agent.
type wireProps struct {
	Text        *string      `json:"text,omitempty"`
	Visible     *bool        `json:"visible,omitempty"`
	Accept      acceptList   `json:"accept,omitempty"`
	Multiple    *bool        `json:"multiple,omitempty"`
	UploadLabel *string      `json:"uploadLabel,omitempty"`
	ButtonID    *string      `json:"buttonId,omitempty"`
	ButtonLabel *string      `json:"buttonLabel,omitempty"`
	Action      *string      `json:"action,omitempty"`
	Enabled     *bool        `json:"enabled,omitempty"`
	Style       *ButtonStyle `json:"style,omitempty"`
}

// directiveFromProps narrows the props bag to the variant for action.
// Keys that are not legal for the action are dropped.
func directiveFromProps(action string, p wireProps) Directive {
	switch action {
	case ActionShowContent:
		return ShowContent{Text: p.Text}
	case ActionUpdateContent:
		return UpdateContent{Text: p.Text, Visible: p.Visible}
	case ActionHideContent:
		return HideContent{}
	case ActionShowUpload:
		return ShowUpload{Accept: []string(p.Accept), Multiple: p.Multiple, Label: deref(p.UploadLabel)}
	case ActionHideUpload:
		return HideUpload{}
	case ActionCancelUpload:
		return CancelUpload{}
	case ActionShowButton:
		d := ShowButton{
			ButtonID: deref(p.ButtonID),
			Enabled:  p.Enabled,
			Label:    deref(p.ButtonLabel),
			Action:   deref(p.Action),
		}
		if p.Style != nil {
			d.Style = *p.Style
		}
		return d
	case ActionHideButton:
		return HideButton{ButtonID: deref(p.ButtonID)}
	case ActionUpdateButton:
		return UpdateButton{
			ButtonID: deref(p.ButtonID),
			Enabled:  p.Enabled,
			Label:    p.ButtonLabel,
			Action:   p.Action,
			Style:    p.Style,
		}
	}
	return UnknownDirective{Name: action}
}

// propsFromDirective is the inverse of directiveFromProps.
func propsFromDirective(d Directive) (wireProps, bool) {
	var p wireProps
	switch v := d.(type) {
	case ShowContent:
		p.Text = v.Text
	case UpdateContent:
		p.Text, p.Visible = v.Text, v.Visible
	case ShowUpload:
		p.Accept = acceptList(v.Accept)
		p.Multiple = v.Multiple
		p.UploadLabel = ref(v.Label)
	case ShowButton:
		p.ButtonID = ref(v.ButtonID)
		p.Enabled = v.Enabled
		p.ButtonLabel = ref(v.Label)
		p.Action = ref(v.Action)
		if v.Style != "" {
			style := v.Style
			p.Style = &style
		}
	case HideButton:
		p.ButtonID = ref(v.ButtonID)
	case UpdateButton:
		p.ButtonID = ref(v.ButtonID)
		p.Enabled, p.ButtonLabel, p.Action, p.Style = v.Enabled, v.Label, v.Action, v.Style
	default:
		return p, false
	}
	return p, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ptr returns a pointer to v. Handy for building directives in code.
func Ptr[T any](v T) *T {
	return &v
}
