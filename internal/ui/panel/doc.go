// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panel is the Bubble Tea front end: a scrollback of the
// conversation, an input line, and a status bar. It renders the
// in-flight assistant message live as folds occur and switches to a
// reload screen once the validity monitor fires.
package panel
