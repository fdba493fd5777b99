// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the chat-completion endpoint.
const (
	// DefaultBaseURL is the OpenAI-compatible API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultMaxTokens caps the response length.
	DefaultMaxTokens = 1024

	// MaxErrorBodySize bounds how much of an error response body is read.
	MaxErrorBodySize = 1 * 1024 * 1024
)

// sharedStreamingClient is used for all streaming requests. No client
// timeout: a stream lives as long as its context.
// PERFORMANCE: connection pooling reduces TCP handshake overhead.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates the stored credential was rejected.
	ErrAuthFailed = errors.New("authentication failed: invalid API key")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-success response from the endpoint, surfaced with
// its upstream message intact.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d)", e.Status)
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is one {role, content} pair in the request body.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completion request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one chat-completion endpoint.
type Client struct {
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// New creates a client. An empty baseURL falls back to DefaultBaseURL.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		// Bursty panel interactions stay polite toward the endpoint.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// IsConfigured reports whether a credential is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// ChatStream sends the request with streaming enabled and invokes the
// callback for every decoded event, in decode order, on the caller's
// goroutine. It returns once the terminal event has been delivered.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback func(Event)) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req.Stream = true
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := sharedStreamingClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	reader := NewStreamReader(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		callback(ev)
		if ev.Done {
			return nil
		}
	}
}

// handleErrorResponse maps a non-success status to the error taxonomy.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))

	// OpenAI-style error envelope; fall back to the raw body.
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Error.Message
	}
	if message == "" {
		message = string(bytes.TrimSpace(body))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Status: resp.StatusCode, Message: message}
	}
}
