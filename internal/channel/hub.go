// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package channel

import (
	"sync"
	"time"
)

// =============================================================================
// HUB
// =============================================================================

// Hub is the rendezvous point between the panel and the worker. The
// panel dials fresh channels through it; the worker accepts them and
// answers liveness pings.
type Hub struct {
	mu     sync.Mutex
	closed bool
	active []*Channel

	accepts chan *Channel
	pings   chan chan struct{}
}

// NewHub creates a hub with room for a few pending connections.
func NewHub() *Hub {
	return &Hub{
		accepts: make(chan *Channel, 8),
		pings:   make(chan chan struct{}, 8),
	}
}

// Dial opens a fresh channel and queues it for the worker. It fails with
// ErrHostInvalidated once the hub is closed and with ErrChannelClosed
// when the worker has stopped draining connections.
func (h *Hub) Dial() (*Channel, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHostInvalidated
	}
	ch := newChannel()
	h.active = append(h.active, ch)
	h.mu.Unlock()

	select {
	case h.accepts <- ch:
		return ch, nil
	default:
		ch.Close(CloseNormal)
		return nil, ErrChannelClosed
	}
}

// Accept exposes the queue of dialed channels to the worker.
func (h *Hub) Accept() <-chan *Channel {
	return h.accepts
}

// PingRequests exposes liveness probes to the worker; the worker replies
// by sending on the request's reply channel.
func (h *Hub) PingRequests() <-chan chan struct{} {
	return h.pings
}

// Ping probes worker liveness with a bounded wait. False means the host
// side is gone or wedged.
func (h *Hub) Ping(timeout time.Duration) bool {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return false
	}

	reply := make(chan struct{}, 1)
	select {
	case h.pings <- reply:
	default:
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-reply:
		return true
	case <-timer.C:
		return false
	}
}

// Close models host teardown: every active channel is force-closed with
// CloseHostInvalidated and all further dials fail. One-way.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	active := h.active
	h.active = nil
	h.mu.Unlock()

	for _, ch := range active {
		ch.Close(CloseHostInvalidated)
	}
}

// Closed reports whether the hub has been torn down.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// forget drops a finished channel from the active list.
func (h *Hub) forget(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.active {
		if c == ch {
			h.active = append(h.active[:i], h.active[i+1:]...)
			return
		}
	}
}

// Release marks a channel as finished so a long-lived hub does not
// accumulate settled channels.
func (h *Hub) Release(ch *Channel) {
	h.forget(ch)
}
