// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects the response style for a request. Each mode maps to a
// system-level instruction template and a sampling temperature.
type Mode string

const (
	ModeExplain   Mode = "explain"
	ModeQuiz      Mode = "quiz"
	ModeAsk       Mode = "ask"
	ModeSummarize Mode = "summarize"
)

// Modes lists all valid modes in display order.
var Modes = []Mode{ModeExplain, ModeQuiz, ModeAsk, ModeSummarize}

// Valid reports whether the mode is one of the four known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeExplain, ModeQuiz, ModeAsk, ModeSummarize:
		return true
	}
	return false
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// DisplayName returns a capitalized name for the status bar.
func (m Mode) DisplayName() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// SAMPLING
// =============================================================================

// Temperature returns the sampling temperature for the mode.
// Quiz generation wants variety; everything else wants precision.
func (m Mode) Temperature() float64 {
	if m == ModeQuiz {
		return 0.9
	}
	return 0.3
}

// =============================================================================
// PROMPT TEMPLATES
// =============================================================================

// SystemPrompt returns the system-level instruction for the mode.
func (m Mode) SystemPrompt() string {
	switch m {
	case ModeExplain:
		return "You are PageMind, a reading assistant. Explain the given text clearly and concisely for a general audience. Use short paragraphs and define any jargon."
	case ModeQuiz:
		return "You are PageMind, a study assistant. Create a short quiz (3-5 questions with answers) that tests understanding of the given text."
	case ModeSummarize:
		return "You are PageMind, a reading assistant. Summarize the given text in a few bullet points, keeping only the essential ideas."
	default:
		return "You are PageMind, a helpful reading assistant. Answer the user's question, using the provided page text as context when it is relevant."
	}
}

// AutoSends reports whether triggering the mode with selected text should
// immediately send a templated prompt. Ask mode waits for user input.
func (m Mode) AutoSends() bool {
	return m != ModeAsk
}

// PromptFor builds the user prompt for the mode from the selected text.
// The selection is embedded verbatim.
func (m Mode) PromptFor(selected string) string {
	switch m {
	case ModeExplain:
		return "Explain the following text:\n\n" + selected
	case ModeQuiz:
		return "Create a quiz from the following text:\n\n" + selected
	case ModeSummarize:
		return "Summarize the following text:\n\n" + selected
	default:
		return selected
	}
}
