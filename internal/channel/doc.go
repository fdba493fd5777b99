// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channel implements the duplex, message-oriented pipe between
// the panel and the background worker.
//
// The two sides share no memory: everything crossing the boundary is a
// typed, versioned Msg. A Channel carries at most one request and is
// never reused; the panel dials a fresh one per send so stale listeners
// cannot mix events from two overlapping sessions.
//
// The Hub is the connection point. It hands dialed channels to the
// worker, answers liveness pings, and models host teardown: once closed,
// every active channel is force-closed with CloseHostInvalidated and all
// further dials fail.
package channel
