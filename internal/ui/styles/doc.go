// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the PageMind panel.
package styles
