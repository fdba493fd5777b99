// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"log/slog"

	"github.com/utk7arsh/PageMind/internal/channel"
	"github.com/utk7arsh/PageMind/internal/config"
	"github.com/utk7arsh/PageMind/internal/llm"
	"github.com/utk7arsh/PageMind/internal/model"
)

// =============================================================================
// WORKER
// =============================================================================

// Streamer is the slice of the llm client the worker uses.
type Streamer interface {
	ChatStream(ctx context.Context, req llm.ChatRequest, callback func(llm.Event)) error
}

// Worker serves streaming chat requests arriving over the hub.
type Worker struct {
	hub    *channel.Hub
	cfg    *config.Store
	logger *slog.Logger

	// dial builds the endpoint client for one request. Swappable in
	// tests; credentials are read per request, never cached.
	dial func(baseURL, apiKey string) Streamer
}

// NewWorker creates a worker bound to a hub and a config store.
func NewWorker(hub *channel.Hub, cfg *config.Store, logger *slog.Logger) *Worker {
	return &Worker{
		hub:    hub,
		cfg:    cfg,
		logger: logger,
		dial: func(baseURL, apiKey string) Streamer {
			return llm.New(baseURL, apiKey)
		},
	}
}

// Run accepts connections and pings until the context ends. Each channel
// is served on its own goroutine so a stalled stream never blocks
// liveness probes.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reply := <-w.hub.PingRequests():
			reply <- struct{}{}
		case ch := <-w.hub.Accept():
			go w.serve(ctx, ch)
		}
	}
}

// serve handles one request/response cycle over one channel.
func (w *Worker) serve(ctx context.Context, ch *channel.Channel) {
	defer w.hub.Release(ch)
	defer ch.Close(channel.CloseNormal)

	req, ok := ch.RecvRequest()
	if !ok {
		return
	}

	log := w.logger.With("channel", ch.ID(), "mode", req.Mode.String())

	cred, err := w.cfg.Credential()
	if err != nil {
		log.Error("credential read failed", "error", err)
		w.sendError(ch, err.Error())
		return
	}

	cfg := w.cfg.Config()
	client := w.dial(cfg.Endpoint.BaseURL, cred)

	llmReq := buildRequest(req, cfg)
	log.Info("request started", "model", llmReq.Model, "turns", len(llmReq.Messages))

	err = client.ChatStream(ctx, llmReq, func(ev llm.Event) {
		if ev.Done {
			ch.SendEvent(channel.Event{Kind: channel.EventDone})
			return
		}
		ch.SendEvent(channel.Event{Kind: channel.EventChunk, Text: ev.Delta})
	})
	if err != nil {
		log.Warn("request failed", "error", err)
		w.sendError(ch, err.Error())
		return
	}
	log.Info("request completed")
}

// sendError relays a terminal error event; a closed channel swallows it,
// which is fine because the panel already saw the disconnect.
func (w *Worker) sendError(ch *channel.Channel, message string) {
	ch.SendEvent(channel.Event{Kind: channel.EventError, Text: message})
}

// =============================================================================
// REQUEST ASSEMBLY
// =============================================================================

// buildRequest converts a request envelope into the endpoint request:
// mode instruction first, selected page text (if any) as extra system
// context, then the prior exchange verbatim.
func buildRequest(req channel.Request, cfg config.Config) llm.ChatRequest {
	messages := make([]llm.ChatMessage, 0, len(req.Messages)+2)
	messages = append(messages, llm.ChatMessage{
		Role:    model.RoleSystem.String(),
		Content: req.Mode.SystemPrompt(),
	})
	if req.Context != "" {
		messages = append(messages, llm.ChatMessage{
			Role:    model.RoleSystem.String(),
			Content: "Selected page text:\n\n" + req.Context,
		})
	}
	for _, turn := range req.Messages {
		messages = append(messages, llm.ChatMessage{
			Role:    turn.Role.String(),
			Content: turn.Content,
		})
	}

	modelID := req.Model
	if modelID == "" {
		modelID = cfg.Endpoint.DefaultModel
	}

	return llm.ChatRequest{
		Model:       modelID,
		Messages:    messages,
		MaxTokens:   cfg.Endpoint.MaxTokens,
		Temperature: req.Mode.Temperature(),
		Stream:      true,
	}
}
