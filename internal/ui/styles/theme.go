// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/agentui/internal/uistate"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	renderer *lipgloss.Renderer

	// ==========================================================================
	// CHAT STYLES
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderDetail lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	ErrorBox         lipgloss.Style

	InputPrompt  lipgloss.Style
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// UI PANEL STYLES
	// ==========================================================================

	ContentCard lipgloss.Style

	UploadBox       lipgloss.Style
	UploadTitle     lipgloss.Style
	UploadHint      lipgloss.Style
	UploadIdle      lipgloss.Style
	UploadUploading lipgloss.Style
	UploadCompleted lipgloss.Style
	UploadError     lipgloss.Style

	ButtonPrimary   lipgloss.Style
	ButtonSecondary lipgloss.Style
	ButtonDanger    lipgloss.Style
	ButtonDisabled  lipgloss.Style
	ButtonFocused   lipgloss.Style
}

// NewTheme creates a theme on the default renderer. mode is "dark",
// "light" or "auto" (detect from the terminal).
func NewTheme(mode string) *Theme {
	return NewThemeWithRenderer(mode, lipgloss.DefaultRenderer())
}

// NewThemeWithRenderer creates a theme whose styles render through r. Tests
// pass a renderer with the Ascii profile to get plain text.
func NewThemeWithRenderer(mode string, r *lipgloss.Renderer) *Theme {
	switch strings.ToLower(mode) {
	case ModeDark:
		r.SetHasDarkBackground(true)
	case ModeLight:
		r.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       r.HasDarkBackground(),
		ColorProfile: r.ColorProfile(),
		renderer:     r,
	}
	t.initStyles()
	return t
}

// Renderer returns the renderer the theme's styles are bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	// Header
	t.Header = s().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = s().
		Bold(true).
		Foreground(Cyan)

	t.HeaderDetail = s().
		Foreground(TextMuted)

	// Messages
	t.UserMessage = s().
		Foreground(UserFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)

	t.AssistantMessage = s().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ErrorBox = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Foreground(Rose).
		Padding(0, 1)

	// Input and progress
	t.InputPrompt = s().
		Foreground(Cyan).
		Bold(true)

	t.Spinner = s().
		Foreground(Purple)

	t.ThinkingText = s().
		Foreground(TextSecondary).
		Italic(true)

	// Status bar
	t.StatusBar = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = s().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = s().
		Foreground(TextMuted)

	// Content card
	t.ContentCard = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Foreground(TextPrimary).
		Padding(0, 1)

	// Upload widget
	t.UploadBox = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.UploadTitle = s().
		Foreground(TextPrimary).
		Bold(true)

	t.UploadHint = s().
		Foreground(TextMuted)

	t.UploadIdle = s().
		Foreground(TextSecondary)

	t.UploadUploading = s().
		Foreground(Amber).
		Bold(true)

	t.UploadCompleted = s().
		Foreground(SuccessHighContrast).
		Bold(true)

	t.UploadError = s().
		Foreground(ErrorHighContrast).
		Bold(true)

	// Buttons
	t.ButtonPrimary = s().
		Foreground(TextInverse).
		Background(Cyan).
		Padding(0, 1)

	t.ButtonSecondary = s().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 1)

	t.ButtonDanger = s().
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	t.ButtonDisabled = s().
		Foreground(TextMuted).
		Strikethrough(true).
		Padding(0, 1)

	t.ButtonFocused = s().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Underline(true).
		Padding(0, 1)
}

// ButtonStyle returns the style for a button of the given style. Unknown
// styles render as primary.
func (t *Theme) ButtonStyle(style uistate.ButtonStyle) lipgloss.Style {
	switch style {
	case uistate.ButtonSecondary:
		return t.ButtonSecondary
	case uistate.ButtonDanger:
		return t.ButtonDanger
	default:
		return t.ButtonPrimary
	}
}

// UploadStatusStyle returns the style for an upload status.
func (t *Theme) UploadStatusStyle(status uistate.UploadStatus) lipgloss.Style {
	switch status {
	case uistate.UploadUploading:
		return t.UploadUploading
	case uistate.UploadCompleted:
		return t.UploadCompleted
	case uistate.UploadError:
		return t.UploadError
	default:
		return t.UploadIdle
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
