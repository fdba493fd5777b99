// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend runs the privileged-side worker. It accepts channels
// from the hub, answers liveness pings, and serves one streaming chat
// request per channel: credential and endpoint settings are read fresh
// for every request, the remote call is made with streaming enabled,
// and decoded events are relayed back over the channel as discrete
// chunk/done/error messages.
package backend
