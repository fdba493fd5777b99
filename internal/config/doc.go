// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// PageMind.
//
// Configuration lives in ~/.pagemind/config.toml with environment
// variable overrides and built-in defaults. The Store is handed by
// reference to the components that need it and always answers with the
// current values, so a config change takes effect on the next request
// without a restart; an fsnotify watcher keeps the in-memory view in
// sync with edits on disk.
//
// The API credential is not part of the TOML file: it is encrypted at
// rest with a key held in a 0600 keystore file.
package config
