// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/alecthomas/chroma/v2/quick"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Renderer renders settled assistant messages as markdown. When glamour
// cannot be initialized (exotic terminals), it falls back to plain text
// with chroma-highlighted fenced code blocks.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// NewRenderer builds a renderer for the given theme ("auto", "dark",
// "light") and wrap width.
func NewRenderer(theme string, width int) *Renderer {
	if width < 20 {
		width = 20
	}

	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
	}
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		tr = nil
	}
	return &Renderer{tr: tr, width: width}
}

// Render returns terminal-styled markdown, or the fallback rendering.
func (r *Renderer) Render(md string) string {
	if r.tr != nil {
		out, err := r.tr.Render(md)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return fallbackRender(md)
}

// fallbackRender passes prose through untouched and highlights fenced
// code blocks with chroma.
func fallbackRender(md string) string {
	var out strings.Builder
	lines := strings.Split(md, "\n")

	var code strings.Builder
	lang := ""
	inFence := false

	flush := func() {
		var hl strings.Builder
		if err := quick.Highlight(&hl, code.String(), lang, "terminal256", "monokai"); err != nil {
			out.WriteString(code.String())
		} else {
			out.WriteString(hl.String())
		}
		code.Reset()
		lang = ""
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inFence {
				flush()
			} else {
				lang = strings.TrimSpace(strings.TrimPrefix(line, "```"))
			}
			inFence = !inFence
			continue
		}
		if inFence {
			code.WriteString(line)
			code.WriteString("\n")
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	if inFence {
		flush()
	}
	return strings.TrimRight(out.String(), "\n")
}
