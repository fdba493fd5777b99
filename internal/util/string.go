// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"net/url"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth truncates s to at most width terminal cells, appending
// "..." when anything was cut. Width-aware so CJK and emoji never break
// the panel layout.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads s with spaces to the given terminal-cell width.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// TrimOrigin normalizes an origin into a history key. A full URL is
// reduced to its hostname so every page on a site shares one history;
// empty input falls back to the shared default key.
func TrimOrigin(origin string) string {
	trimmed := strings.TrimSpace(origin)
	if strings.Contains(trimmed, "://") {
		if u, err := url.Parse(trimmed); err == nil && u.Hostname() != "" {
			trimmed = u.Hostname()
		}
	}
	if trimmed == "" {
		return "default"
	}
	return trimmed
}
