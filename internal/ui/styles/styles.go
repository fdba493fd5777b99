// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette colors, tuned for dark terminals and degraded automatically
// by lipgloss on lesser profiles.
var (
	Accent     = lipgloss.Color("#7C6AEF")
	TextNormal = lipgloss.Color("#DDDDDD")
	TextMuted  = lipgloss.Color("#888888")
	ErrorRed   = lipgloss.Color("#E06C75")
	OKGreen    = lipgloss.Color("#98C379")
)

// Theme holds the styled components for the panel.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Header    lipgloss.Style
	StatusBar lipgloss.Style
	ModeBadge lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorText      lipgloss.Style
	MutedText      lipgloss.Style

	InputBox    lipgloss.Style
	ReloadFrame lipgloss.Style
}

// NewTheme builds the theme from the terminal's capabilities.
func NewTheme() *Theme {
	return &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1),

		ModeBadge: lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(OKGreen),

		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent),

		ErrorText: lipgloss.NewStyle().
			Foreground(ErrorRed),

		MutedText: lipgloss.NewStyle().
			Foreground(TextMuted),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(TextMuted).
			Padding(0, 1),

		ReloadFrame: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ErrorRed).
			Padding(1, 3),
	}
}
