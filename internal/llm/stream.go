// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// Event is one decoded item from the SSE stream. A Done event (possibly
// synthesized at EOF) always ends the sequence.
type Event struct {
	Delta string
	Done  bool
}

// chunkPayload is the wire shape of one "data: {...}" line.
type chunkPayload struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// content returns the incremental text of the first choice.
func (p *chunkPayload) content() string {
	if len(p.Choices) > 0 {
		return p.Choices[0].Delta.Content
	}
	return ""
}

// =============================================================================
// STREAM READER
// =============================================================================

// doneToken is the literal termination payload.
var doneToken = []byte("[DONE]")

// StreamReader decodes a streaming response body line by line. The
// sequence it produces is lazy, finite, and non-restartable.
type StreamReader struct {
	reader   *bufio.Reader
	model    string
	finished bool
}

// NewStreamReader creates a stream reader over a response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Next returns the next event. After the terminal Done it returns io.EOF.
// A byte stream that ends without ever carrying [DONE] still yields one
// final Done so the consumer is never left waiting.
func (s *StreamReader) Next() (Event, error) {
	if s.finished {
		return Event{}, io.EOF
	}

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Event{}, err
		}

		ev, ok := s.decodeLine(line)
		if ok {
			if ev.Done {
				s.finished = true
			}
			return ev, nil
		}

		if err == io.EOF {
			// Upstream closed without the termination token.
			s.finished = true
			return Event{Done: true}, nil
		}
	}
}

// decodeLine parses one line; ok=false means the line carried nothing
// (blank, comment, non-data field, empty delta, or unparseable payload).
// Parse failures are skipped rather than fatal: a transport may hand us
// a line fragment and the stream must survive it.
func (s *StreamReader) decodeLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return Event{}, false
	}

	if !bytes.HasPrefix(line, []byte("data:")) {
		return Event{}, false
	}
	data := bytes.TrimSpace(line[len("data:"):])

	if bytes.Equal(data, doneToken) {
		return Event{Done: true}, true
	}

	var payload chunkPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Event{}, false
	}

	if payload.Model != "" {
		s.model = payload.Model
	}

	delta := payload.content()
	if delta == "" {
		return Event{}, false
	}
	return Event{Delta: delta}, true
}

// Model returns the model identifier observed on the stream, if any.
func (s *StreamReader) Model() string {
	return s.model
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// Accumulator folds events into the full response text.
type Accumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content strings.Builder
	done    bool
}

// Add folds one event.
func (a *Accumulator) Add(ev Event) {
	a.content.WriteString(ev.Delta)
	if ev.Done {
		a.done = true
	}
}

// Content returns the accumulated text so far.
func (a *Accumulator) Content() string {
	return a.content.String()
}

// Done reports whether a terminal event was folded.
func (a *Accumulator) Done() bool {
	return a.done
}
