package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

func TestEmbeddedDefaultMatchesHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	def := DefaultConfig()

	if cfg.Game.TickRate != def.Game.TickRate {
		t.Errorf("Expected tick rate %d, got %d", def.Game.TickRate, cfg.Game.TickRate)
	}
	if cfg.Game.CanvasSize != def.Game.CanvasSize || cfg.Game.CellSize != def.Game.CellSize {
		t.Errorf("Expected grid %d/%d, got %d/%d",
			def.Game.CanvasSize, def.Game.CellSize, cfg.Game.CanvasSize, cfg.Game.CellSize)
	}
	if len(cfg.Game.Palette) != len(def.Game.Palette) {
		t.Errorf("Expected %d palette colours, got %d", len(def.Game.Palette), len(cfg.Game.Palette))
	}
	if cfg.Server.PongWait != 60*time.Second {
		t.Errorf("Expected pong wait 60s, got %s", cfg.Server.PongWait)
	}
	if cfg.Rooms.IdleTimeout != 2*time.Minute {
		t.Errorf("Expected idle timeout 2m, got %s", cfg.Rooms.IdleTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Embedded config should be valid: %v", err)
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	data := []byte(`
game:
  tick_rate: 10
  palette:
    teal: "#008080"
server:
  http_addr: ":9000"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Game.TickRate != 10 {
		t.Errorf("Expected tick rate 10, got %d", cfg.Game.TickRate)
	}
	if cfg.Game.CellSize != 25 {
		t.Errorf("Expected default cell size 25, got %d", cfg.Game.CellSize)
	}
	if cfg.Server.HTTPAddr != ":9000" {
		t.Errorf("Expected http addr :9000, got %s", cfg.Server.HTTPAddr)
	}
	if len(cfg.Game.Palette) != 1 || cfg.Game.Palette["teal"] != core.Color("#008080") {
		t.Errorf("Expected palette to be replaced, got %v", cfg.Game.Palette)
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("game:\n  tick_rate: 30\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Game.TickRate != 30 {
		t.Errorf("Expected tick rate 30, got %d", cfg.Game.TickRate)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing custom config")
	}
	if !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Game.CanvasSize != 500 {
		t.Errorf("Expected embedded canvas size 500, got %d", cfg.Game.CanvasSize)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHTTPAddr, ":8080")
	t.Setenv(EnvAllowedOrigins, "https://a.example, https://b.example")
	t.Setenv(EnvSSHEnabled, "true")
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvTickRate, "20")
	t.Setenv(EnvRoomIdle, "45s")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Server.HTTPAddr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if !cfg.SSH.Enabled {
		t.Error("Expected SSH to be enabled")
	}
	if cfg.Storage.DBPath != "" {
		t.Errorf("Expected storage to be disabled by empty db path, got %q", cfg.Storage.DBPath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Game.TickRate != 20 {
		t.Errorf("Expected tick rate 20, got %d", cfg.Game.TickRate)
	}
	if cfg.Rooms.IdleTimeout != 45*time.Second {
		t.Errorf("Expected idle timeout 45s, got %s", cfg.Rooms.IdleTimeout)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvTickRate, "fast")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err == nil {
		t.Error("Expected error for non-numeric tick rate")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(EnvLogLevel+"=warn\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Register cleanup for the variable, then make sure it is unset so the file applies.
	t.Setenv(EnvLogLevel, "placeholder")
	os.Unsetenv(EnvLogLevel)

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() failed: %v", err)
	}
	if got := os.Getenv(EnvLogLevel); got != "warn" {
		t.Errorf("Expected %s=warn, got %q", EnvLogLevel, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero tick rate", func(c *Config) { c.Game.TickRate = 0 }, "tick_rate"},
		{"negative cell", func(c *Config) { c.Game.CellSize = -1 }, "cell_size"},
		{"misaligned canvas", func(c *Config) { c.Game.CanvasSize = 510 }, "multiple"},
		{"empty palette", func(c *Config) { c.Game.Palette = core.Palette{} }, "palette"},
		{"fruit colour in palette", func(c *Config) { c.Game.Palette["fruit"] = "#ff0000" }, "fruit colour"},
		{"ping slower than pong", func(c *Config) { c.Server.PingInterval = time.Minute }, "ping_interval"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("Expected error mentioning %q, got %v", tc.field, err)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestMarshalRoundTripsDurations(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) failed: %v", err)
	}
	if cfg.Server.PongWait != time.Minute {
		t.Errorf("Expected pong wait 1m, got %s", cfg.Server.PongWait)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandHome("~/.snakerooms/scores.db")
	if err != nil {
		t.Fatalf("ExpandHome() failed: %v", err)
	}
	if got != filepath.Join(home, ".snakerooms", "scores.db") {
		t.Errorf("Unexpected path: %s", got)
	}
	if got, _ := ExpandHome("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("Absolute path should be unchanged, got %s", got)
	}
}
