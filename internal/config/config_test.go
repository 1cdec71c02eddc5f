package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "richsync.toml")
	content := `
[logging]
level = "debug"

[relay]
listen = "127.0.0.1:9000"

[demo]
session = "pairing"
relay = "ws://127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level %q, want debug", cfg.Logging.Level)
	}
	if cfg.Relay.Listen != "127.0.0.1:9000" {
		t.Errorf("listen %q, want 127.0.0.1:9000", cfg.Relay.Listen)
	}
	if cfg.Demo.Session != "pairing" {
		t.Errorf("session %q, want pairing", cfg.Demo.Session)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Relay.ReadLimit != Default().Relay.ReadLimit {
		t.Errorf("read limit %d, want default", cfg.Relay.ReadLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("relay = {"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RICHSYNC_LOG_LEVEL", "warn")
	t.Setenv("RICHSYNC_SESSION", "standup")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level %q, want warn", cfg.Logging.Level)
	}
	if cfg.Demo.Session != "standup" {
		t.Errorf("session %q, want standup", cfg.Demo.Session)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"empty listen", func(c *Config) { c.Relay.Listen = "" }},
		{"zero read limit", func(c *Config) { c.Relay.ReadLimit = 0 }},
		{"empty session", func(c *Config) { c.Demo.Session = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}
