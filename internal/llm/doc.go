// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm is the client for the remote chat-completion endpoint.
//
// Requests go out as a single HTTPS POST with streaming enabled; the
// response comes back as server-sent-event lines prefixed "data: ",
// each carrying either a JSON delta object or the literal [DONE] token.
// StreamReader turns that byte stream into a finite event sequence.
package llm
