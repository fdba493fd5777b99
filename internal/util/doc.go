// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers: atomic file writes and
// width-aware string formatting.
package util
