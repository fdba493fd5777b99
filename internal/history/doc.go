// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists settled conversations and the panel's flat
// settings records.
//
// The schema is a flat key/value layout: one row per origin holding the
// full message sequence as JSON, overwritten whole on every persist,
// plus a settings table for the selected model and the panel size.
// There is no query capability beyond the key.
//
// The store refuses to persist any sequence containing a mid-stream
// message: partial assistant output never reaches durable storage.
package history
