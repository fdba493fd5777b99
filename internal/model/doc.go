// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the panel and the
// background worker: chat messages, roles, and the assistant modes.
//
// A Message is mutable only while streaming: decoded text deltas are
// appended through AppendDelta, and FinalizeStream (or FailStream) moves
// it to its settled state exactly once. Settled messages are immutable
// and safe to persist.
package model
