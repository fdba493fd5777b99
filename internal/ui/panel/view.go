// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/utk7arsh/PageMind/internal/model"
	"github.com/utk7arsh/PageMind/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the panel, or the reload screen after invalidation.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.invalidated {
		return m.reloadView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.theme.InputBox.Width(m.width - 2).Render(m.input.View()))
	return b.String()
}

// headerView renders the title line.
func (m Model) headerView() string {
	title := "PageMind · " + m.controller.Origin()
	return m.theme.Header.Render(util.TruncateWidth(title, m.width-2))
}

// statusView renders mode, model, and activity state.
func (m Model) statusView() string {
	parts := []string{
		m.theme.ModeBadge.Render(m.controller.Mode().DisplayName()),
	}

	if id := m.controller.SelectedModel(); id != "" {
		parts = append(parts, id)
	}

	switch {
	case m.controller.Busy():
		parts = append(parts, m.spin.View()+"thinking")
	case m.controller.NeedsConfig():
		parts = append(parts, m.theme.ErrorText.Render("API key required (run with -configure)"))
	default:
		parts = append(parts, "tab: mode · ctrl+l: clear")
	}

	return m.theme.StatusBar.Render(util.TruncateWidth(strings.Join(parts, "  ·  "), m.width-2))
}

// reloadView is the degraded screen after host invalidation. There is
// no in-place recovery; the user must restart the panel.
func (m Model) reloadView() string {
	msg := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.ErrorText.Render("PageMind was disconnected from its background worker."),
		"",
		m.theme.MutedText.Render("Reload the panel to continue."),
		m.theme.MutedText.Render("Press ctrl+c to exit."),
	)
	frame := m.theme.ReloadFrame.Render(msg)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// renderMessages renders the conversation snapshot. Settled assistant
// messages go through the markdown renderer; the in-flight one renders
// as plain text so partial markdown never flickers.
func (m Model) renderMessages() string {
	msgs := m.controller.Snapshot()
	if len(msgs) == 0 {
		return m.theme.MutedText.Render("Select text on a page or type a question to begin.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m Model) renderMessage(msg *model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}

	content := msg.DisplayContent()
	switch {
	case msg.IsStreaming && content == "":
		content = m.spin.View() + m.theme.MutedText.Render("waiting for response...")
	case msg.IsStreaming:
		// Live render, plain text.
	case msg.Role == model.RoleAssistant && strings.HasPrefix(content, "Error: "):
		content = m.theme.ErrorText.Render(content)
	case msg.Role == model.RoleAssistant:
		content = m.renderer.Render(content)
	}

	return label + "\n" + content
}
