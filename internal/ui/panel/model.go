// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/utk7arsh/PageMind/internal/history"
	"github.com/utk7arsh/PageMind/internal/model"
	"github.com/utk7arsh/PageMind/internal/session"
	"github.com/utk7arsh/PageMind/internal/ui/styles"
	"github.com/utk7arsh/PageMind/internal/validity"
)

// =============================================================================
// PANEL MODEL
// =============================================================================

// Model is the Bubble Tea model for the assistant panel.
type Model struct {
	controller *session.Controller
	monitor    *validity.Monitor
	store      *history.Store

	theme    *styles.Theme
	renderer *Renderer
	mdTheme  string

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	invalidated bool
}

// New creates the panel. Initial dimensions may come from the persisted
// panel-size preference; the first WindowSizeMsg corrects them.
func New(ctrl *session.Controller, monitor *validity.Monitor, store *history.Store, mdTheme string, width, height int) Model {
	input := textinput.New()
	input.Placeholder = "Ask about this page..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		controller: ctrl,
		monitor:    monitor,
		store:      store,
		theme:      styles.NewTheme(),
		mdTheme:    mdTheme,
		input:      input,
		spin:       sp,
		width:      width,
		height:     height,
	}
	if width > 0 && height > 0 {
		m.layout()
	}
	return m
}

// Init starts the blink, spinner, and liveness tick loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, validity.TickCmd())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all panel events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.savePanelSize()
		m.refreshViewport()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case SessionUpdatedMsg:
		m.refreshViewport()

	case TriggerMsg:
		m.controller.RequestSession(msg.Selected, msg.Mode)
		m.refreshViewport()

	case validity.TickMsg:
		cmds = append(cmds, m.monitor.HandleTick())

	case validity.InvalidatedMsg:
		m.invalidated = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.invalidated {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key bindings; handled=false lets the components
// consume the key instead.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "enter":
		if m.invalidated {
			return nil, true
		}
		content := m.input.Value()
		m.input.Reset()
		// Fire-and-forget; the result arrives as SessionUpdatedMsg.
		m.controller.Send(content, m.controller.Mode())
		return nil, true

	case "tab":
		if m.invalidated {
			return nil, true
		}
		m.controller.SetMode(nextMode(m.controller.Mode()))
		return nil, true

	case "ctrl+l":
		if m.invalidated {
			return nil, true
		}
		m.controller.ClearHistory()
		m.refreshViewport()
		return nil, true
	}
	return nil, false
}

// nextMode cycles through the modes in display order.
func nextMode(current model.Mode) model.Mode {
	for i, mode := range model.Modes {
		if mode == current {
			return model.Modes[(i+1)%len(model.Modes)]
		}
	}
	return model.Modes[0]
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout (re)computes component dimensions. Header, status bar, and the
// input box take four rows; the viewport gets the rest.
func (m *Model) layout() {
	contentHeight := m.height - 4
	if contentHeight < 3 {
		contentHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = contentHeight
	}
	m.input.Width = m.width - 6
	m.renderer = NewRenderer(m.mdTheme, m.width-2)
}

// savePanelSize records the panel-size preference.
func (m *Model) savePanelSize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.store.SetSetting(history.SettingPanelSize, fmt.Sprintf("%dx%d", m.width, m.height))
}

// refreshViewport re-renders the conversation and follows the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// RestorePanelSize parses a persisted "WxH" preference. Zeroes mean no
// preference was stored.
func RestorePanelSize(store *history.Store) (width, height int) {
	pref, err := store.Setting(history.SettingPanelSize)
	if err != nil || pref == "" {
		return 0, 0
	}
	if _, err := fmt.Sscanf(pref, "%dx%d", &width, &height); err != nil {
		return 0, 0
	}
	return width, height
}
