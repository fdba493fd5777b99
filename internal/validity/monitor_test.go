// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package validity

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utk7arsh/PageMind/internal/channel"
)

// fakeProber scripts liveness probe answers.
type fakeProber struct {
	alive atomic.Bool
}

func (p *fakeProber) Ping(time.Duration) bool {
	return p.alive.Load()
}

// =============================================================================
// MONITOR TESTS
// =============================================================================

func TestMonitor_StartsValid(t *testing.T) {
	m := NewMonitor(nil)
	if m.Invalidated() {
		t.Error("fresh monitor should not be invalidated")
	}
}

func TestMonitor_InvalidateIsOneWay(t *testing.T) {
	m := NewMonitor(nil)

	var fired atomic.Int32
	m.OnInvalidated(func() { fired.Add(1) })

	m.Invalidate()
	m.Invalidate()
	m.Invalidate()

	if !m.Invalidated() {
		t.Fatal("monitor should be invalidated")
	}
	if fired.Load() != 1 {
		t.Errorf("hooks fired %d times, want exactly 1", fired.Load())
	}

	// There is no reset path; the signal never clears.
	if m.Check() {
		t.Error("Check() must stay false after invalidation")
	}
}

func TestMonitor_OnInvalidatedAfterTheFact(t *testing.T) {
	m := NewMonitor(nil)
	m.Invalidate()

	fired := false
	m.OnInvalidated(func() { fired = true })
	if !fired {
		t.Error("late hook should run immediately")
	}
}

func TestMonitor_CheckProbes(t *testing.T) {
	p := &fakeProber{}
	p.alive.Store(true)
	m := NewMonitor(p)

	if !m.Check() {
		t.Fatal("Check() with a live host should pass")
	}

	p.alive.Store(false)
	if m.Check() {
		t.Fatal("Check() with a dead host should flip the signal")
	}
	if !m.Invalidated() {
		t.Error("failed probe should invalidate")
	}

	// Recovery of the prober does not recover the monitor.
	p.alive.Store(true)
	if m.Check() {
		t.Error("Check() must stay false even if the host comes back")
	}
}

func TestMonitor_NoteError(t *testing.T) {
	tests := []struct {
		err      error
		escalate bool
	}{
		{nil, false},
		{errors.New("connection refused"), false},
		{channel.ErrHostInvalidated, true},
		{fmt.Errorf("dial: %w", channel.ErrHostInvalidated), true},
		{errors.New("extension context invalidated"), true},
	}
	for _, tt := range tests {
		m := NewMonitor(nil)
		if got := m.NoteError(tt.err); got != tt.escalate {
			t.Errorf("NoteError(%v) = %v, want %v", tt.err, got, tt.escalate)
		}
		if m.Invalidated() != tt.escalate {
			t.Errorf("Invalidated() after NoteError(%v) = %v, want %v", tt.err, m.Invalidated(), tt.escalate)
		}
	}
}

func TestMonitor_HandleTick(t *testing.T) {
	p := &fakeProber{}
	p.alive.Store(true)
	m := NewMonitor(p)

	if cmd := m.HandleTick(); cmd == nil {
		t.Fatal("healthy tick should schedule the next tick")
	}

	p.alive.Store(false)
	cmd := m.HandleTick()
	if cmd == nil {
		t.Fatal("failing tick should produce a command")
	}
	if _, ok := cmd().(InvalidatedMsg); !ok {
		t.Error("failing tick should emit InvalidatedMsg")
	}
}
