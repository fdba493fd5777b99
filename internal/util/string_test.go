// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hi", 0, ""},
		{"hello", 2, "he"},
	}
	for _, tt := range tests {
		if got := TruncateWidth(tt.s, tt.width); got != tt.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}

func TestTrimOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"example.com", "example.com"},
		{"  example.com \n", "example.com"},
		{"https://example.com/article/42?q=1", "example.com"},
		{"http://sub.example.com:8080/path", "sub.example.com"},
		{"", "default"},
		{"   ", "default"},
	}
	for _, tt := range tests {
		if got := TrimOrigin(tt.origin); got != tt.want {
			t.Errorf("TrimOrigin(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}
}
