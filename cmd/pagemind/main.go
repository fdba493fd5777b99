// PageMind - an in-terminal assistant panel for reading the web.
//
// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/utk7arsh/PageMind/internal/backend"
	"github.com/utk7arsh/PageMind/internal/channel"
	"github.com/utk7arsh/PageMind/internal/config"
	"github.com/utk7arsh/PageMind/internal/history"
	"github.com/utk7arsh/PageMind/internal/session"
	"github.com/utk7arsh/PageMind/internal/ui/panel"
	"github.com/utk7arsh/PageMind/internal/validity"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		dirFlag       = flag.String("dir", "", "data directory (default ~/.pagemind)")
		originFlag    = flag.String("origin", "", "history partition key, normally the page hostname")
		configureFlag = flag.Bool("configure", false, "store the API key and exit")
		versionFlag   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("pagemind %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	dir := *dirFlag
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			fatal("cannot resolve data directory: %v", err)
		}
	}

	cfgStore, err := config.Open(dir)
	if err != nil {
		fatal("config: %v", err)
	}

	if *configureFlag {
		if err := configure(cfgStore); err != nil {
			fatal("configure: %v", err)
		}
		fmt.Println("API key stored.")
		return
	}

	logger, logClose := openLogger(dir, cfgStore.Config().Log)
	defer logClose()

	if err := run(cfgStore, logger, dir, *originFlag); err != nil {
		logger.Error("exiting on error", "error", err)
		fatal("%v", err)
	}
}

// run wires the worker, the session controller, and the panel together
// and blocks until the panel exits.
func run(cfgStore *config.Store, logger *slog.Logger, dir, origin string) error {
	stopWatch, err := cfgStore.Watch(logger)
	if err != nil {
		logger.Warn("config watch unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	store, err := history.Open(dir)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := channel.NewHub()
	defer hub.Close()

	worker := backend.NewWorker(hub, cfgStore, logger)
	go worker.Run(ctx)

	monitor := validity.NewMonitor(hub)

	ctrl, err := session.NewController(session.Config{
		Origin:  origin,
		Hub:     hub,
		Store:   store,
		Monitor: monitor,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	width, height := panel.RestorePanelSize(store)
	if width == 0 || height == 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h
		}
	}

	m := panel.New(ctrl, monitor, store, cfgStore.Config().UI.Theme, width, height)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// The controller mutates state from worker goroutines; route every
	// change through the program as a message.
	ctrl.SetNotify(func() {
		p.Send(panel.SessionUpdatedMsg{})
	})
	monitor.OnInvalidated(func() {
		p.Send(validity.InvalidatedMsg{})
	})

	logger.Info("panel starting", "origin", ctrl.Origin(), "version", Version)
	_, err = p.Run()
	return err
}

// =============================================================================
// SETUP HELPERS
// =============================================================================

// configure prompts for the API key without echo and stores it
// encrypted at rest.
func configure(cfgStore *config.Store) error {
	fmt.Print("API key (input hidden): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return err
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("empty key")
	}
	return cfgStore.SetCredential(key)
}

// openLogger builds the JSON file logger. Logging to stdout would
// corrupt the alternate screen, so failures fall back to a discard
// handler rather than the console.
func openLogger(dir string, lc config.LogConfig) (*slog.Logger, func()) {
	path := lc.Path
	if path == "" {
		path = filepath.Join(dir, "pagemind.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}
	}

	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "pagemind: "+format+"\n", args...)
	os.Exit(1)
}
