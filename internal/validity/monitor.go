// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package validity

import (
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/utk7arsh/PageMind/internal/channel"
)

// =============================================================================
// MONITOR
// =============================================================================

// DefaultInterval is how often liveness is sampled.
const DefaultInterval = 5 * time.Second

// DefaultProbeTimeout bounds one liveness probe.
const DefaultProbeTimeout = time.Second

// Prober answers liveness probes for the host side.
type Prober interface {
	Ping(timeout time.Duration) bool
}

// Monitor tracks the invalidated signal.
type Monitor struct {
	mu          sync.Mutex
	invalidated bool
	hooks       []func()

	prober       Prober
	probeTimeout time.Duration
}

// NewMonitor creates a monitor probing the given host connection.
func NewMonitor(p Prober) *Monitor {
	return &Monitor{
		prober:       p,
		probeTimeout: DefaultProbeTimeout,
	}
}

// Invalidated reports whether the host has been invalidated.
func (m *Monitor) Invalidated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated
}

// Invalidate sets the signal. One-way: later calls are no-ops and the
// registered hooks fire exactly once.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	if m.invalidated {
		m.mu.Unlock()
		return
	}
	m.invalidated = true
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// OnInvalidated registers a hook. If the signal is already set the hook
// runs immediately.
func (m *Monitor) OnInvalidated(fn func()) {
	m.mu.Lock()
	if m.invalidated {
		m.mu.Unlock()
		fn()
		return
	}
	m.hooks = append(m.hooks, fn)
	m.mu.Unlock()
}

// Check samples liveness once, flipping the signal on failure. Returns
// true while the host is still valid.
func (m *Monitor) Check() bool {
	if m.Invalidated() {
		return false
	}
	if m.prober != nil && !m.prober.Ping(m.probeTimeout) {
		m.Invalidate()
		return false
	}
	return true
}

// NoteError escalates errors that indicate host invalidation. Returns
// true when the error flipped (or had already flipped) the signal.
func (m *Monitor) NoteError(err error) bool {
	if err == nil {
		return false
	}
	if !IsHostInvalidation(err) {
		return false
	}
	m.Invalidate()
	return true
}

// IsHostInvalidation reports whether an error means the host revoked
// the worker, as opposed to an ordinary request failure.
func IsHostInvalidation(err error) bool {
	if errors.Is(err, channel.ErrHostInvalidated) {
		return true
	}
	return strings.Contains(err.Error(), "context invalidated")
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg drives periodic liveness sampling.
type TickMsg struct {
	Time time.Time
}

// InvalidatedMsg tells the panel to show the reload screen.
type InvalidatedMsg struct{}

// TickCmd returns a command that ticks on the sampling interval.
func TickCmd() tea.Cmd {
	return tea.Tick(DefaultInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick samples liveness and keeps the tick loop running.
func (m *Monitor) HandleTick() tea.Cmd {
	if !m.Check() {
		return func() tea.Msg {
			return InvalidatedMsg{}
		}
	}
	return TickCmd()
}
