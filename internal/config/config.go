// Package config carries the file-backed settings of the richsync
// binaries: where the relay listens, which session the demo joins, and how
// loud the logs are. Settings come from defaults, then a TOML file, then
// RICHSYNC_* environment variables, later sources winning.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root of the TOML document.
type Config struct {
	Logging Logging `toml:"logging"`
	Relay   Relay   `toml:"relay"`
	Demo    Demo    `toml:"demo"`
}

// Logging configures the structured logger of both binaries.
type Logging struct {
	// Level is the minimum level to emit: debug, info, warn, or error.
	Level string `toml:"level"`
	// Prefix is prepended to every log line.
	Prefix string `toml:"prefix"`
}

// Relay configures the websocket relay server.
type Relay struct {
	// Listen is the address the relay binds, host:port.
	Listen string `toml:"listen"`
	// ReadLimit caps the size of one op batch message in bytes.
	ReadLimit int64 `toml:"read_limit"`
}

// Demo configures the two-replica demo client.
type Demo struct {
	// Session names the relay session the demo joins.
	Session string `toml:"session"`
	// Relay is the relay base URL (ws://host:port). Empty runs the demo
	// wired locally.
	Relay string `toml:"relay"`
	// State is a saved document to start from instead of an empty one.
	State string `toml:"state"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info", Prefix: "richsync"},
		Relay:   Relay{Listen: ":8737", ReadLimit: 1 << 20},
		Demo:    Demo{Session: "demo"},
	}
}

// Load builds the effective configuration: defaults, overlaid by the TOML
// file at path when one is named, overlaid by environment variables. An
// explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	set("RICHSYNC_LOG_LEVEL", &c.Logging.Level)
	set("RICHSYNC_RELAY_LISTEN", &c.Relay.Listen)
	set("RICHSYNC_RELAY_URL", &c.Demo.Relay)
	set("RICHSYNC_SESSION", &c.Demo.Session)
}

// Validate checks the effective settings.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrValidation, c.Logging.Level)
	}
	if c.Relay.Listen == "" {
		return fmt.Errorf("%w: relay listen address is empty", ErrValidation)
	}
	if c.Relay.ReadLimit <= 0 {
		return fmt.Errorf("%w: relay read limit %d", ErrValidation, c.Relay.ReadLimit)
	}
	if c.Demo.Session == "" {
		return fmt.Errorf("%w: demo session is empty", ErrValidation)
	}
	return nil
}
