// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/utk7arsh/PageMind/internal/channel"
	"github.com/utk7arsh/PageMind/internal/config"
	"github.com/utk7arsh/PageMind/internal/llm"
	"github.com/utk7arsh/PageMind/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeStreamer scripts the endpoint: it records the request and replays
// the configured events.
type fakeStreamer struct {
	events []llm.Event
	err    error

	got llm.ChatRequest
}

func (f *fakeStreamer) ChatStream(ctx context.Context, req llm.ChatRequest, callback func(llm.Event)) error {
	f.got = req
	if f.err != nil {
		return f.err
	}
	for _, ev := range f.events {
		callback(ev)
	}
	return nil
}

func newTestWorker(t *testing.T, fake *fakeStreamer) (*Worker, *channel.Hub) {
	t.Helper()
	cfg, err := config.Open(t.TempDir())
	if err != nil {
		t.Fatalf("config.Open() error = %v", err)
	}
	hub := channel.NewHub()
	w := NewWorker(hub, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.dial = func(baseURL, apiKey string) Streamer { return fake }
	return w, hub
}

// drain collects events until the terminal one or the channel closes.
func drain(t *testing.T, ch *channel.Channel) []channel.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	done := make(chan []channel.Event, 1)
	go func() {
		var events []channel.Event
		for {
			ev, ok := ch.RecvEvent()
			if !ok {
				done <- events
				return
			}
			events = append(events, ev)
			if ev.Kind != channel.EventChunk {
				done <- events
				return
			}
		}
	}()
	select {
	case events := <-done:
		return events
	case <-deadline:
		t.Fatal("timed out waiting for events")
		return nil
	}
}

// =============================================================================
// WORKER TESTS
// =============================================================================

func TestWorker_RelaysStream(t *testing.T) {
	fake := &fakeStreamer{events: []llm.Event{
		{Delta: "Hel"},
		{Delta: "lo"},
		{Done: true},
	}}
	w, hub := newTestWorker(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	ch, err := hub.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	req := channel.Request{
		Messages: []channel.Turn{{Role: model.RoleUser, Content: "hi"}},
		Mode:     model.ModeAsk,
	}
	if err := ch.SendRequest(req); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	events := drain(t, ch)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].Text+events[1].Text != "Hello" {
		t.Errorf("chunks = %q %q, want Hello", events[0].Text, events[1].Text)
	}
	if events[2].Kind != channel.EventDone {
		t.Errorf("terminal event = %+v, want Done", events[2])
	}
}

func TestWorker_RelaysError(t *testing.T) {
	fake := &fakeStreamer{err: errors.New("API key not configured")}
	w, hub := newTestWorker(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	ch, err := hub.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	ch.SendRequest(channel.Request{Mode: model.ModeAsk})

	events := drain(t, ch)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].Kind != channel.EventError {
		t.Fatalf("event = %+v, want Error", events[0])
	}
	if events[0].Text != "API key not configured" {
		t.Errorf("error text = %q", events[0].Text)
	}
}

func TestWorker_AnswersPings(t *testing.T) {
	w, hub := newTestWorker(t, &fakeStreamer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if !hub.Ping(time.Second) {
		t.Error("running worker should answer liveness pings")
	}
}

// =============================================================================
// REQUEST ASSEMBLY TESTS
// =============================================================================

func TestBuildRequest(t *testing.T) {
	cfg := config.DefaultConfig()

	req := channel.Request{
		Messages: []channel.Turn{
			{Role: model.RoleUser, Content: "earlier question"},
			{Role: model.RoleAssistant, Content: "earlier answer"},
			{Role: model.RoleUser, Content: "current question"},
		},
		Mode:    model.ModeExplain,
		Context: "selected page text here",
	}

	out := buildRequest(req, cfg)

	if out.Model != cfg.Endpoint.DefaultModel {
		t.Errorf("Model = %q, want config default when unset", out.Model)
	}
	if out.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3 for explain", out.Temperature)
	}
	if !out.Stream {
		t.Error("requests are always streaming")
	}

	// system prompt, context, then the prior exchange verbatim.
	if len(out.Messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(out.Messages))
	}
	if out.Messages[0].Role != "system" || out.Messages[0].Content != model.ModeExplain.SystemPrompt() {
		t.Errorf("messages[0] = %+v, want mode instruction", out.Messages[0])
	}
	if out.Messages[1].Role != "system" || out.Messages[1].Content != "Selected page text:\n\nselected page text here" {
		t.Errorf("messages[1] = %+v, want page context", out.Messages[1])
	}
	if out.Messages[4].Content != "current question" {
		t.Errorf("messages[4] = %+v, want the latest turn last", out.Messages[4])
	}
}

func TestBuildRequest_NoContext(t *testing.T) {
	cfg := config.DefaultConfig()

	req := channel.Request{
		Messages: []channel.Turn{{Role: model.RoleUser, Content: "q"}},
		Mode:     model.ModeQuiz,
		Model:    "gpt-4o",
	}

	out := buildRequest(req, cfg)

	if len(out.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (no context message)", len(out.Messages))
	}
	if out.Model != "gpt-4o" {
		t.Errorf("Model = %q, explicit choice should win", out.Model)
	}
	if out.Temperature != 0.9 {
		t.Errorf("Temperature = %v, want 0.9 for quiz", out.Temperature)
	}
}
