// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one streaming request/response cycle at
// a time: it opens a fresh channel per send, relays the request
// envelope, folds the returned chunk/done/error events into the
// conversation, and persists the history once every message has
// settled.
//
// A busy flag is the mutual-exclusion mechanism: a send attempted while
// one is in flight is a silent no-op, never queued. Every send path,
// including channel teardown, drives the placeholder assistant message
// to a settled state; nothing is ever left streaming forever.
package session
