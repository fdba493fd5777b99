// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validity detects host-side invalidation of the background
// worker and exposes it as a monotonic one-way signal.
//
// The signal flips on a failed liveness probe (sampled on a fixed
// interval) or on any operation surfacing a host-invalidation error.
// Once set it never clears: the host identity itself has changed, so
// the only recovery is a restart.
package validity
