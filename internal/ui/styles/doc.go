// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the agentui terminal UI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals.

# Color System (colors.go)

  - Purple - assistant replies and the focused button
  - Cyan - brand color, prompts, the content card
  - Emerald - completed uploads
  - Amber - uploads in progress
  - Rose - errors and danger buttons

Status indicators ([OK], [X], [!], [i]) accompany every colored status so
nothing depends on color alone.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	card := theme.ContentCard.Render(text)

Styles are bound to a lipgloss.Renderer. NewThemeWithRenderer accepts a
renderer with a fixed color profile, which is how tests get plain output:

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	theme := styles.NewThemeWithRenderer("dark", r)
*/
package styles
