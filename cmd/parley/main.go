// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// parley is a terminal client for Parley chat servers. It joins a
// room over a websocket, renders the conversation in a full-screen
// TUI, and keeps the connection healthy across network trouble with
// exponential-backoff reconnects.
//
// Configuration layers, lowest to highest: built-in defaults, the
// YAML config file, PARLEY_* environment variables, command-line
// flags. The config file is optional; a display name (from any layer)
// is the only required setting.
//
// Background logging is routed into the TUI status bar instead of
// stderr, which would corrupt the alt-screen display. An optional
// --log-file captures all records as JSON lines for post-mortem
// debugging.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley/lib/chatui"
	"github.com/parleychat/parley/lib/config"
	"github.com/parleychat/parley/lib/version"
	"github.com/parleychat/parley/session"
	"github.com/parleychat/parley/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "parley:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		serverURL  string
		roomName   string
		userName   string
		token      string
		logLevel   string
		logFile    string
	)

	flagSet := pflag.NewFlagSet("parley", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: <user config dir>/parley/config.yaml)")
	flagSet.StringVar(&serverURL, "server", "", "chat server websocket URL")
	flagSet.StringVar(&roomName, "room", "", "room to join")
	flagSet.StringVar(&userName, "name", "", "display name")
	flagSet.StringVar(&token, "token", "", "server auth token")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing so it works regardless of
	// other arguments.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("parley %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if configPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			configPath = filepath.Join(dir, "parley", "config.yaml")
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags are the last configuration layer, over file and
	// environment.
	if flagSet.Changed("server") {
		cfg.Server.URL = serverURL
	}
	if flagSet.Changed("token") {
		cfg.Server.Token = token
	}
	if flagSet.Changed("room") {
		cfg.Room = roomName
	}
	if flagSet.Changed("name") {
		cfg.Identity.Name = userName
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flagSet.Changed("log-file") {
		cfg.Log.File = logFile
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)

	tuiHandler := chatui.NewLogHandler(level)
	var handler slog.Handler = tuiHandler
	if cfg.Log.File != "" {
		fileHandler, fileCloser, fileErr := openFileLogHandler(cfg.Log.File)
		if fileErr != nil {
			return fmt.Errorf("cannot open log file %s: %w", cfg.Log.File, fileErr)
		}
		defer fileCloser()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	maxAttempts := cfg.Reconnect.MaxAttempts
	if maxAttempts == 0 {
		// Config zero means retry forever; the session spells that
		// with a negative count and reserves zero for its default.
		maxAttempts = -1
	}

	sess, err := session.New(session.Config{
		Endpoint: cfg.Server.URL,
		Room:     cfg.Room,
		User: wire.User{
			ID:     cfg.Identity.ID,
			Name:   cfg.Identity.Name,
			Avatar: cfg.Identity.Avatar,
		},
		Token:         cfg.Server.Token,
		Logger:        logger,
		ReconnectBase: cfg.Reconnect.BaseDelay.Std(),
		ReconnectMax:  cfg.Reconnect.MaxDelay.Std(),
		MaxAttempts:   maxAttempts,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	// A failed first dial is not fatal: Connect returns nil and the
	// session heals in the background while the UI shows the retry
	// state.
	if err := sess.Connect(context.Background()); err != nil {
		return err
	}

	model := chatui.NewModel(sess, chatui.UIConfig{
		SelfID:       cfg.Identity.ID,
		DebateAgents: cfg.Debate.Agents,
		DebateRounds: cfg.Debate.MaxRounds,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Parley chat client, an interactive terminal UI for Parley rooms.

Reads %s by default; every setting can
also come from PARLEY_* environment variables or the flags below.
A display name is required, from any of those layers.

Inside the client, lines starting with "/" are commands (/help lists
them); everything else is sent to the room.

Usage:
  parley [flags]

Examples:
  # Join the default room with a display name
  parley --name Ada

  # Join a specific room on a specific server
  parley --server wss://chat.example.com/ws --room ops --name Ada

  # Keep a JSON debug log alongside the TUI
  parley --name Ada --log-level debug --log-file /tmp/parley.log

Flags:
`, "<user config dir>/parley/config.yaml")
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// openFileLogHandler creates a slog.JSONHandler that writes to the
// given file path. Returns the handler, a cleanup function to close
// the file, and any error. The file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler is a slog.Handler that sends each record to multiple
// underlying handlers. A record is enabled if any sub-handler is
// enabled for that level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
