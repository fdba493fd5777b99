// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"github.com/utk7arsh/PageMind/internal/model"
)

// =============================================================================
// PANEL MESSAGES
// =============================================================================

// SessionUpdatedMsg is sent whenever the controller mutated conversation
// state; the panel re-renders from a fresh snapshot.
type SessionUpdatedMsg struct{}

// TriggerMsg starts a session from an external entry point (the
// text-selection hook), optionally pre-seeding selected text.
type TriggerMsg struct {
	Selected string
	Mode     model.Mode
}
