// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "PageMind"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// While IsStreaming is true the content lives in an internal builder and
// grows through AppendDelta; Content holds the final text only after the
// stream settles.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Streaming state (never persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewUserMessage creates a settled user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an empty assistant placeholder in the
// streaming state.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendDelta appends a decoded text delta to a streaming message.
// Deltas arriving after settlement are dropped.
func (m *Message) AppendDelta(text string) {
	if m.IsStreaming {
		m.streamContent.WriteString(text)
	}
}

// FinalizeStream settles the message with the accumulated content.
// Calling it on a settled message is a no-op, so the transition happens
// exactly once.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// FailStream settles the message with an error text, discarding any
// partial content. No-op once settled.
func (m *Message) FailStream(errText string) {
	if !m.IsStreaming {
		return
	}
	m.Content = errText
	m.streamContent.Reset()
	m.IsStreaming = false
}

// Settled reports whether the message content is final.
func (m *Message) Settled() bool {
	return !m.IsStreaming
}

// DisplayContent returns the content to render, live or final.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no content yet.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Clone returns a settled deep copy suitable for persistence.
// The streaming builder is not carried over; a mid-stream clone snapshots
// the partial text into Content but keeps IsStreaming set so the history
// store can still refuse it.
func (m *Message) Clone() *Message {
	return &Message{
		ID:          m.ID,
		Role:        m.Role,
		Content:     m.DisplayContent(),
		Timestamp:   m.Timestamp,
		IsStreaming: m.IsStreaming,
	}
}

// Preview returns a truncated single-line preview of the content.
// Rune-based so multibyte text is never split.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.DisplayContent(), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
