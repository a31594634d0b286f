// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/parleychat/parley/wire"
)

// Config is the complete client configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Identity IdentityConfig `yaml:"identity"`

	// Room is the room joined on startup. Must match the server's room
	// name rule (1..50 word characters or hyphens).
	Room string `yaml:"room" env:"PARLEY_ROOM"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Debate    DebateConfig    `yaml:"debate"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig locates the chat server.
type ServerConfig struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8000/ws.
	// Room and identity query parameters are appended at dial time.
	URL string `yaml:"url" env:"PARLEY_SERVER_URL"`

	// Token authenticates the connection. The server accepts "guest"
	// for anonymous access.
	Token string `yaml:"token" env:"PARLEY_SERVER_TOKEN"`
}

// IdentityConfig is who this client appears as in rooms.
type IdentityConfig struct {
	// ID uniquely identifies this client to the server. Left empty, a
	// random UUID is generated on every load, which makes the client a
	// new person after each restart. Pin it to keep a stable identity.
	ID string `yaml:"id" env:"PARLEY_IDENTITY_ID"`

	// Name is the display name other users see. Required.
	Name string `yaml:"name" env:"PARLEY_IDENTITY_NAME"`

	// Avatar is an optional avatar URL passed through to other clients.
	Avatar string `yaml:"avatar" env:"PARLEY_IDENTITY_AVATAR"`
}

// ReconnectConfig tunes the auto-healing behavior after a dropped
// connection.
type ReconnectConfig struct {
	// BaseDelay is the wait before the first reconnect attempt. Each
	// further attempt doubles it.
	BaseDelay Duration `yaml:"base_delay" env:"PARLEY_RECONNECT_BASE_DELAY"`

	// MaxDelay caps the doubling.
	MaxDelay Duration `yaml:"max_delay" env:"PARLEY_RECONNECT_MAX_DELAY"`

	// MaxAttempts is how many consecutive failures are tolerated before
	// the session gives up. Zero means never give up.
	MaxAttempts int `yaml:"max_attempts" env:"PARLEY_RECONNECT_MAX_ATTEMPTS"`
}

// DebateConfig seeds the /debate command.
type DebateConfig struct {
	// Agents are the ids offered as quick picks when starting a debate,
	// first entry for side A, second for side B.
	Agents []string `yaml:"agents" env:"PARLEY_DEBATE_AGENTS" envSeparator:","`

	// MaxRounds is the round budget requested for new debates. Zero
	// leaves the choice to the server.
	MaxRounds int `yaml:"max_rounds" env:"PARLEY_DEBATE_MAX_ROUNDS"`
}

// LogConfig controls the client's structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"PARLEY_LOG_LEVEL"`

	// File receives JSON log lines when set. Unset, logs render inside
	// the TUI's status area instead of corrupting the terminal.
	File string `yaml:"file" env:"PARLEY_LOG_FILE"`
}

// Duration is a time.Duration that decodes from Go duration strings
// ("1s", "500ms") in both YAML documents and environment overrides.
type Duration time.Duration

// UnmarshalYAML decodes a scalar duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalText decodes a duration string from an environment override.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q", text)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the baseline configuration: a local development
// server, anonymous access, and the reconnect cadence the session
// package also defaults to.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:   "ws://localhost:8000/ws",
			Token: "guest",
		},
		Room: "general",
		Reconnect: ReconnectConfig{
			BaseDelay:   Duration(time.Second),
			MaxDelay:    Duration(30 * time.Second),
			MaxAttempts: 10,
		},
		Debate: DebateConfig{
			Agents:    []string{"gpt-4", "gemini-pro"},
			MaxRounds: 6,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration file at path, then applies PARLEY_*
// environment overrides on top. A missing file is not an error: the
// defaults apply and the environment can still override them. Unknown
// keys in the file are rejected so typos fail loudly instead of being
// silently ignored.
//
// Load does not validate: callers merge their own overrides (command
// line flags) first and then call [Config.Validate].
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if cfg.Identity.ID == "" {
		cfg.Identity.ID = uuid.NewString()
	}

	return cfg, nil
}

// Validate checks the configuration after all override layers have been
// merged. Errors name the offending field by its YAML path.
func (c *Config) Validate() error {
	endpoint, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if endpoint.Scheme != "ws" && endpoint.Scheme != "wss" {
		return fmt.Errorf("server.url: scheme %q is not ws or wss", endpoint.Scheme)
	}
	if endpoint.Host == "" {
		return errors.New("server.url: missing host")
	}
	if !wire.ValidRoom(c.Room) {
		return fmt.Errorf("room: %q does not match the server's room rule", c.Room)
	}
	if strings.TrimSpace(c.Identity.Name) == "" {
		return errors.New("identity.name: required; set it in the config file, PARLEY_IDENTITY_NAME, or the --name flag")
	}
	if c.Reconnect.BaseDelay <= 0 {
		return fmt.Errorf("reconnect.base_delay: %s is not positive", c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect.max_delay: %s is below base_delay %s", c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts: %d is negative; zero means never give up", c.Reconnect.MaxAttempts)
	}
	if c.Debate.MaxRounds < 0 || c.Debate.MaxRounds > wire.MaxDebateRounds {
		return fmt.Errorf("debate.max_rounds: %d outside 0..%d", c.Debate.MaxRounds, wire.MaxDebateRounds)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParseLevel maps a config level name to its slog level. The empty
// string means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown level %q", name)
}
