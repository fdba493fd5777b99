// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package channel

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/utk7arsh/PageMind/internal/model"
)

// ProtocolVersion is stamped on every message crossing the boundary.
const ProtocolVersion = 1

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrChannelClosed indicates a send or receive on a closed channel.
	ErrChannelClosed = errors.New("connection lost")

	// ErrHostInvalidated indicates the background worker is gone for good.
	// The error string is the signal the validity monitor escalates on.
	ErrHostInvalidated = errors.New("host context invalidated")
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// Turn is one prior exchange entry in a request envelope.
type Turn struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// Request is the envelope the panel sends over a channel. Immutable once
// handed to SendRequest.
type Request struct {
	Messages []Turn     `json:"messages"`
	Mode     model.Mode `json:"mode"`
	Context  string     `json:"context,omitempty"`
	Model    string     `json:"model"`
}

// EventKind tags the stream event variants.
type EventKind int

const (
	EventChunk EventKind = iota
	EventDone
	EventError
)

// Event is one relayed stream event. Text carries the delta for Chunk
// and the message for Error; it is empty for Done.
type Event struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text,omitempty"`
}

// Msg is the typed, versioned message crossing the process boundary.
// Exactly one payload field is set.
type Msg struct {
	Version int      `json:"version"`
	Request *Request `json:"request,omitempty"`
	Event   *Event   `json:"event,omitempty"`
}

// CloseReason explains why a channel was torn down.
type CloseReason int

const (
	// CloseNormal is an orderly close after the request completed.
	CloseNormal CloseReason = iota
	// CloseHostInvalidated means the host revoked the worker; there is
	// no recovery short of a restart.
	CloseHostInvalidated
)

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is one duplex pipe instance. The panel writes requests toward
// the worker and reads events back; the worker does the reverse.
type Channel struct {
	id string

	toWorker chan Msg
	toPanel  chan Msg
	done     chan struct{}

	mu         sync.Mutex
	closed     bool
	reason     CloseReason
	closeHooks []func(CloseReason)
}

func newChannel() *Channel {
	return &Channel{
		id:       "ch_" + uuid.NewString(),
		toWorker: make(chan Msg, 4),
		toPanel:  make(chan Msg, 64),
		done:     make(chan struct{}),
	}
}

// ID returns the channel's unique name.
func (c *Channel) ID() string {
	return c.id
}

// Close tears the channel down with the given reason and fires the
// registered close hooks. Idempotent; only the first reason sticks.
func (c *Channel) Close(reason CloseReason) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.reason = reason
	hooks := c.closeHooks
	c.closeHooks = nil
	close(c.done)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(reason)
	}
}

// Closed reports whether the channel has been torn down.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Reason returns the close reason. Meaningful only after Close.
func (c *Channel) Reason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// OnClose registers a disconnect hook. If the channel is already closed
// the hook runs immediately on the caller's goroutine.
func (c *Channel) OnClose(fn func(CloseReason)) {
	c.mu.Lock()
	if c.closed {
		reason := c.reason
		c.mu.Unlock()
		fn(reason)
		return
	}
	c.closeHooks = append(c.closeHooks, fn)
	c.mu.Unlock()
}

// =============================================================================
// PANEL SIDE
// =============================================================================

// SendRequest transmits the request envelope toward the worker.
func (c *Channel) SendRequest(req Request) error {
	msg := Msg{Version: ProtocolVersion, Request: &req}
	select {
	case c.toWorker <- msg:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}

// RecvEvent blocks for the next relayed event. It returns ok=false only
// once the channel is closed and every already-relayed event has been
// drained, so a Done sitting in the buffer is never lost to a close.
func (c *Channel) RecvEvent() (Event, bool) {
	for {
		select {
		case m := <-c.toPanel:
			if m.Event != nil {
				return *m.Event, true
			}
		case <-c.done:
			select {
			case m := <-c.toPanel:
				if m.Event != nil {
					return *m.Event, true
				}
			default:
				return Event{}, false
			}
		}
	}
}

// =============================================================================
// WORKER SIDE
// =============================================================================

// RecvRequest blocks for the request envelope. ok=false means the
// channel closed before one arrived.
func (c *Channel) RecvRequest() (Request, bool) {
	for {
		select {
		case m := <-c.toWorker:
			if m.Request != nil {
				return *m.Request, true
			}
		case <-c.done:
			select {
			case m := <-c.toWorker:
				if m.Request != nil {
					return *m.Request, true
				}
			default:
				return Request{}, false
			}
		}
	}
}

// SendEvent relays one stream event toward the panel.
func (c *Channel) SendEvent(ev Event) error {
	msg := Msg{Version: ProtocolVersion, Event: &ev}
	select {
	case c.toPanel <- msg:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}
