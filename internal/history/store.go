// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/utk7arsh/PageMind/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

// Schema is the flat key/value layout: whole-history overwrite per
// origin, plus settings records.
const Schema = `
CREATE TABLE IF NOT EXISTS histories (
    origin     TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

// Settings keys.
const (
	SettingModel     = "model"
	SettingPanelSize = "panel_size"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMidStream is returned when a persist is attempted while any
	// message in the set is still streaming.
	ErrMidStream = errors.New("refusing to persist a streaming message")
)

// =============================================================================
// STORED MESSAGE
// =============================================================================

// storedMessage is the persisted shape of one settled message.
type storedMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is the durable conversation history, keyed by origin.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// HISTORY OPERATIONS
// =============================================================================

// Hydrate loads the settled history for an origin. A missing origin
// yields an empty slice, not an error.
func (s *Store) Hydrate(origin string) ([]*model.Message, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM histories WHERE origin = ?", origin).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %q: %w", origin, err)
	}

	var stored []storedMessage
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, fmt.Errorf("history for %q is corrupt: %w", origin, err)
	}

	msgs := make([]*model.Message, 0, len(stored))
	for _, sm := range stored {
		msgs = append(msgs, &model.Message{
			ID:        sm.ID,
			Role:      model.Role(sm.Role),
			Content:   sm.Content,
			Timestamp: sm.Timestamp,
		})
	}
	return msgs, nil
}

// Persist overwrites the full history for an origin. It fails with
// ErrMidStream if any message has not settled.
func (s *Store) Persist(origin string, msgs []*model.Message) error {
	for _, m := range msgs {
		if !m.Settled() {
			return ErrMidStream
		}
	}

	stored := make([]storedMessage, 0, len(msgs))
	for _, m := range msgs {
		stored = append(stored, storedMessage{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO histories (origin, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(origin) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		origin, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to persist history for %q: %w", origin, err)
	}
	return nil
}

// Clear removes the history record for an origin.
func (s *Store) Clear(origin string) error {
	if _, err := s.db.Exec("DELETE FROM histories WHERE origin = ?", origin); err != nil {
		return fmt.Errorf("failed to clear history for %q: %w", origin, err)
	}
	return nil
}

// Origins lists the origins with stored history, most recent first.
func (s *Store) Origins() ([]string, error) {
	rows, err := s.db.Query("SELECT origin FROM histories ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list origins: %w", err)
	}
	defer rows.Close()

	var origins []string
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, err
		}
		origins = append(origins, origin)
	}
	return origins, rows.Err()
}

// =============================================================================
// SETTINGS OPERATIONS
// =============================================================================

// Setting returns the value for a settings key, or "" when unset.
func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting overwrites the value for a settings key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}
