// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/utk7arsh/PageMind/internal/channel"
	"github.com/utk7arsh/PageMind/internal/history"
	"github.com/utk7arsh/PageMind/internal/model"
	"github.com/utk7arsh/PageMind/internal/util"
	"github.com/utk7arsh/PageMind/internal/validity"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Config wires a controller to its collaborators.
type Config struct {
	// Origin partitions the persisted history (page hostname, or the
	// fallback key when unavailable).
	Origin string

	Hub     *channel.Hub
	Store   *history.Store
	Monitor *validity.Monitor
	Logger  *slog.Logger

	// Notify is called after every state mutation so the UI can redraw.
	Notify func()
}

// Controller owns the conversation state for one origin and runs at
// most one request at a time.
type Controller struct {
	mu sync.Mutex

	origin   string
	messages []*model.Message
	mode     model.Mode

	busy        bool
	needsConfig bool

	// pendingContext is selected page text seeded by RequestSession and
	// consumed by the next send.
	pendingContext string

	hub     *channel.Hub
	store   *history.Store
	monitor *validity.Monitor
	logger  *slog.Logger
	notify  func()
}

// NewController creates a controller and hydrates its history from the
// store.
func NewController(cfg Config) (*Controller, error) {
	origin := util.TrimOrigin(cfg.Origin)

	msgs, err := cfg.Store.Hydrate(origin)
	if err != nil {
		return nil, err
	}

	notify := cfg.Notify
	if notify == nil {
		notify = func() {}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		origin:   origin,
		messages: msgs,
		mode:     model.ModeAsk,
		hub:      cfg.Hub,
		store:    cfg.Store,
		monitor:  cfg.Monitor,
		logger:   logger.With("origin", origin),
		notify:   notify,
	}, nil
}

// SetNotify replaces the redraw hook (the panel installs one once the
// program exists).
func (c *Controller) SetNotify(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	c.notify = fn
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Origin returns the history key this controller owns.
func (c *Controller) Origin() string {
	return c.origin
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Mode returns the active response mode.
func (c *Controller) Mode() model.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the active response mode.
func (c *Controller) SetMode(m model.Mode) {
	if !m.Valid() {
		return
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
	c.notify()
}

// NeedsConfig reports whether the last failure was a missing or invalid
// credential; the panel routes the user to settings on it.
func (c *Controller) NeedsConfig() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsConfig
}

// AckNeedsConfig clears the needs-configuration signal.
func (c *Controller) AckNeedsConfig() {
	c.mu.Lock()
	c.needsConfig = false
	c.mu.Unlock()
}

// Snapshot returns value copies of the current messages in order. A
// mid-stream message is snapshotted with its partial text, safe for the
// render loop to read while folds continue.
func (c *Controller) Snapshot() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Message, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.Clone())
	}
	return out
}

// SelectedModel returns the persisted model identifier, "" meaning the
// endpoint default. Read fresh per send.
func (c *Controller) SelectedModel() string {
	id, err := c.store.Setting(history.SettingModel)
	if err != nil {
		c.logger.Warn("model setting read failed", "error", err)
		return ""
	}
	return id
}

// SetModel persists the model identifier; it applies on the next send.
func (c *Controller) SetModel(id string) error {
	return c.store.SetSetting(history.SettingModel, id)
}

// =============================================================================
// SESSION ENTRY POINTS
// =============================================================================

// RequestSession starts a session from an external trigger: the selected
// text is seeded as pending context, and non-ask modes immediately send
// their templated prompt.
func (c *Controller) RequestSession(selected string, mode model.Mode) {
	if !mode.Valid() {
		mode = model.ModeAsk
	}

	c.mu.Lock()
	c.mode = mode
	c.pendingContext = selected
	c.mu.Unlock()
	c.notify()

	if mode.AutoSends() && strings.TrimSpace(selected) != "" {
		c.Send(mode.PromptFor(selected), mode)
	}
}

// Send relays one user message. Fire-and-forget: the result arrives via
// state mutation. Rejected silently when content is blank, a request is
// already in flight, or the host has been invalidated.
func (c *Controller) Send(content string, mode model.Mode) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if c.monitor != nil && c.monitor.Invalidated() {
		return
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = true
	if mode.Valid() {
		c.mode = mode
	} else {
		mode = c.mode
	}

	// User message first, placeholder second, in that order.
	user := model.NewUserMessage(content)
	placeholder := model.NewAssistantMessage()
	c.messages = append(c.messages, user, placeholder)

	context := c.pendingContext
	c.pendingContext = ""

	turns := make([]channel.Turn, 0, len(c.messages)-1)
	for _, m := range c.messages {
		if m == placeholder {
			continue
		}
		turns = append(turns, channel.Turn{Role: m.Role, Content: m.Content})
	}
	c.mu.Unlock()
	c.notify()

	req := channel.Request{
		Messages: turns,
		Mode:     mode,
		Context:  context,
		Model:    c.SelectedModel(),
	}

	ch, err := c.hub.Dial()
	if err != nil {
		c.failPlaceholder(placeholder, err.Error())
		if c.monitor != nil {
			c.monitor.NoteError(err)
		}
		return
	}

	ch.OnClose(func(reason channel.CloseReason) {
		if reason == channel.CloseHostInvalidated && c.monitor != nil {
			c.monitor.Invalidate()
		}
	})

	if err := ch.SendRequest(req); err != nil {
		ch.Close(channel.CloseNormal)
		c.failPlaceholder(placeholder, err.Error())
		if c.monitor != nil {
			c.monitor.NoteError(err)
		}
		return
	}

	c.logger.Info("send started", "channel", ch.ID(), "mode", mode.String())
	go c.receive(ch, placeholder)
}

// =============================================================================
// EVENT FOLDING
// =============================================================================

// receive folds relayed events into the placeholder until a terminal
// event or channel teardown settles it.
func (c *Controller) receive(ch *channel.Channel, placeholder *model.Message) {
	for {
		ev, ok := ch.RecvEvent()
		if !ok {
			// Channel closed without a terminal event: implicit error.
			c.failPlaceholder(placeholder, channel.ErrChannelClosed.Error())
			return
		}

		switch ev.Kind {
		case channel.EventChunk:
			c.mu.Lock()
			placeholder.AppendDelta(ev.Text)
			c.mu.Unlock()
			c.notify()

		case channel.EventDone:
			c.settlePlaceholder(placeholder)
			c.logger.Info("send completed", "channel", ch.ID())
			return

		case channel.EventError:
			c.failPlaceholder(placeholder, ev.Text)
			c.logger.Warn("send failed", "channel", ch.ID(), "error", ev.Text)
			return
		}
	}
}

// settlePlaceholder finalizes a successful stream and persists.
func (c *Controller) settlePlaceholder(placeholder *model.Message) {
	c.mu.Lock()
	if placeholder.Settled() {
		c.mu.Unlock()
		return
	}
	placeholder.FinalizeStream()
	c.busy = false
	c.mu.Unlock()
	c.notify()
	c.persist()
}

// failPlaceholder settles the placeholder with an error-formatted
// content and persists. Config errors additionally raise needsConfig.
func (c *Controller) failPlaceholder(placeholder *model.Message, message string) {
	c.mu.Lock()
	if placeholder.Settled() {
		c.mu.Unlock()
		return
	}
	placeholder.FailStream("Error: " + message)
	c.busy = false
	if isConfigError(message) {
		c.needsConfig = true
	}
	c.mu.Unlock()
	c.notify()
	c.persist()
}

// persist writes the settled history. Runs only after the fold that
// cleared IsStreaming, so the store's mid-stream guard never trips in
// normal operation.
func (c *Controller) persist() {
	msgs := c.Snapshot()
	if err := c.store.Persist(c.origin, msgs); err != nil {
		c.logger.Error("history persist failed", "error", err)
	}
}

// ClearHistory wipes the conversation, both live and durable. No-op
// while a request is in flight.
func (c *Controller) ClearHistory() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil
	}
	c.messages = nil
	c.mu.Unlock()
	c.notify()
	return c.store.Clear(c.origin)
}

// =============================================================================
// HELPERS
// =============================================================================

// isConfigError recognizes missing/invalid credential failures.
func isConfigError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "not configured") ||
		strings.Contains(lower, "authentication failed") ||
		strings.Contains(lower, "invalid api key")
}
