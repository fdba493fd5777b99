// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package channel

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utk7arsh/PageMind/internal/model"
)

// =============================================================================
// CHANNEL TESTS
// =============================================================================

func TestChannel_RequestRoundTrip(t *testing.T) {
	ch := newChannel()

	want := Request{
		Messages: []Turn{{Role: model.RoleUser, Content: "hi"}},
		Mode:     model.ModeAsk,
		Context:  "selected text",
		Model:    "gpt-4o-mini",
	}
	if err := ch.SendRequest(want); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	got, ok := ch.RecvRequest()
	if !ok {
		t.Fatal("RecvRequest() ok = false, want true")
	}
	if got.Mode != want.Mode || got.Context != want.Context || got.Model != want.Model {
		t.Errorf("RecvRequest() = %+v, want %+v", got, want)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Errorf("RecvRequest() messages = %+v", got.Messages)
	}
}

func TestChannel_EventRoundTrip(t *testing.T) {
	ch := newChannel()

	ch.SendEvent(Event{Kind: EventChunk, Text: "Hel"})
	ch.SendEvent(Event{Kind: EventChunk, Text: "lo"})
	ch.SendEvent(Event{Kind: EventDone})

	var got string
	for {
		ev, ok := ch.RecvEvent()
		if !ok {
			t.Fatal("RecvEvent() ok = false before Done")
		}
		if ev.Kind == EventDone {
			break
		}
		got += ev.Text
	}
	if got != "Hello" {
		t.Errorf("accumulated = %q, want %q", got, "Hello")
	}
}

func TestChannel_SendOnClosed(t *testing.T) {
	ch := newChannel()
	ch.Close(CloseNormal)

	if err := ch.SendRequest(Request{}); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("SendRequest() on closed = %v, want ErrChannelClosed", err)
	}
	if err := ch.SendEvent(Event{Kind: EventDone}); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("SendEvent() on closed = %v, want ErrChannelClosed", err)
	}
}

// A Done already relayed must survive the close that follows it. The
// worker closes its channel right after sending the terminal event, so
// this ordering happens on every single request.
func TestChannel_DrainsBufferedEventsAfterClose(t *testing.T) {
	ch := newChannel()

	ch.SendEvent(Event{Kind: EventChunk, Text: "x"})
	ch.SendEvent(Event{Kind: EventDone})
	ch.Close(CloseNormal)

	ev, ok := ch.RecvEvent()
	if !ok || ev.Kind != EventChunk {
		t.Fatalf("first recv = (%+v, %v), want buffered chunk", ev, ok)
	}
	ev, ok = ch.RecvEvent()
	if !ok || ev.Kind != EventDone {
		t.Fatalf("second recv = (%+v, %v), want buffered Done", ev, ok)
	}
	if _, ok := ch.RecvEvent(); ok {
		t.Error("recv after drain should report closed")
	}
}

func TestChannel_CloseIdempotent(t *testing.T) {
	ch := newChannel()

	var fired atomic.Int32
	ch.OnClose(func(CloseReason) { fired.Add(1) })

	ch.Close(CloseHostInvalidated)
	ch.Close(CloseNormal)

	if fired.Load() != 1 {
		t.Errorf("close hooks fired %d times, want 1", fired.Load())
	}
	if ch.Reason() != CloseHostInvalidated {
		t.Errorf("Reason() = %v, want the first close reason", ch.Reason())
	}
}

func TestChannel_OnCloseAfterClose(t *testing.T) {
	ch := newChannel()
	ch.Close(CloseNormal)

	var got CloseReason = -1
	ch.OnClose(func(r CloseReason) { got = r })

	if got != CloseNormal {
		t.Errorf("late OnClose hook got %v, want immediate CloseNormal", got)
	}
}

// =============================================================================
// HUB TESTS
// =============================================================================

func TestHub_DialDeliversToAccept(t *testing.T) {
	h := NewHub()

	ch, err := h.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	select {
	case accepted := <-h.Accept():
		if accepted != ch {
			t.Error("accepted channel is not the dialed one")
		}
	default:
		t.Fatal("dialed channel never reached Accept")
	}
}

func TestHub_DialEachSendGetsFreshChannel(t *testing.T) {
	h := NewHub()

	a, err := h.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	b, err := h.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if a == b || a.ID() == b.ID() {
		t.Error("consecutive dials should produce distinct channels")
	}
}

func TestHub_DialAfterClose(t *testing.T) {
	h := NewHub()
	h.Close()

	if _, err := h.Dial(); !errors.Is(err, ErrHostInvalidated) {
		t.Errorf("Dial() after Close = %v, want ErrHostInvalidated", err)
	}
}

func TestHub_CloseInvalidatesActiveChannels(t *testing.T) {
	h := NewHub()

	ch, err := h.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	h.Close()

	if !ch.Closed() {
		t.Fatal("active channel should be closed by hub teardown")
	}
	if ch.Reason() != CloseHostInvalidated {
		t.Errorf("Reason() = %v, want CloseHostInvalidated", ch.Reason())
	}
}

func TestHub_ReleasedChannelSurvivesClose(t *testing.T) {
	h := NewHub()

	ch, err := h.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	ch.Close(CloseNormal)
	h.Release(ch)

	h.Close()

	if ch.Reason() != CloseNormal {
		t.Errorf("Reason() = %v, want the original CloseNormal", ch.Reason())
	}
}

func TestHub_Ping(t *testing.T) {
	h := NewHub()

	// No worker draining: the probe times out.
	if h.Ping(10 * time.Millisecond) {
		t.Error("Ping() with no worker should fail")
	}

	// Drain the stale probe, then answer the next one like the worker does.
	<-h.PingRequests()
	done := make(chan struct{})
	go func() {
		reply := <-h.PingRequests()
		reply <- struct{}{}
		close(done)
	}()

	if !h.Ping(time.Second) {
		t.Error("Ping() with a live worker should succeed")
	}
	<-done

	h.Close()
	if h.Ping(time.Second) {
		t.Error("Ping() after Close should fail immediately")
	}
}
