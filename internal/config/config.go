// Package config provides YAML-based configuration loading for the snake server,
// with environment overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

// Config is the complete server configuration.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Server  ServerConfig  `yaml:"server"`
	Rooms   RoomsConfig   `yaml:"rooms"`
	Storage StorageConfig `yaml:"storage"`
	SSH     SSHConfig     `yaml:"ssh"`
	Log     LogConfig     `yaml:"log"`
}

// GameConfig holds the gameplay constants shared by every room.
type GameConfig struct {
	TickRate            int          `yaml:"tick_rate"`   // Ticks per second
	CanvasSize          int          `yaml:"canvas_size"` // Playfield extent in canvas units
	CellSize            int          `yaml:"cell_size"`
	PlayerNameMaxLength int          `yaml:"player_name_max_length"`
	Palette             core.Palette `yaml:"palette"`
	FruitColor          core.Color   `yaml:"fruit_color"`
}

// ServerConfig defines the WebSocket/HTTP listener.
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongWait       time.Duration `yaml:"pong_wait"`
	WriteWait      time.Duration `yaml:"write_wait"`
	SendBuffer     int           `yaml:"send_buffer"` // Outbound events buffered per client
}

// RoomsConfig controls idle room cleanup.
type RoomsConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	CleanupPeriod time.Duration `yaml:"cleanup_period"`
}

// StorageConfig points at the score history database.
// An empty DBPath disables storage.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// SSHConfig configures the operator dashboard served over SSH.
type SSHConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogConfig selects the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Runtime converts the game section into the constants rooms are built with.
func (g GameConfig) Runtime() core.RuntimeConfig {
	return core.RuntimeConfig{
		CanvasSize:    g.CanvasSize,
		CellSize:      g.CellSize,
		TickRate:      g.TickRate,
		NameMaxLength: g.PlayerNameMaxLength,
		Palette:       g.Palette,
		FruitColor:    g.FruitColor,
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	g := c.Game
	if g.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_rate must be positive, got %d", g.TickRate))
	}
	if g.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("game.cell_size must be positive, got %d", g.CellSize))
	}
	if g.CanvasSize <= 0 {
		errs = append(errs, fmt.Errorf("game.canvas_size must be positive, got %d", g.CanvasSize))
	}
	if g.CellSize > 0 && g.CanvasSize%g.CellSize != 0 {
		errs = append(errs, fmt.Errorf("game.canvas_size %d is not a multiple of game.cell_size %d", g.CanvasSize, g.CellSize))
	}
	if g.PlayerNameMaxLength <= 0 {
		errs = append(errs, fmt.Errorf("game.player_name_max_length must be positive, got %d", g.PlayerNameMaxLength))
	}
	if len(g.Palette) == 0 {
		errs = append(errs, errors.New("game.palette must not be empty"))
	}
	if g.Palette.Contains(g.FruitColor) {
		errs = append(errs, fmt.Errorf("game.palette must not contain the fruit colour %s", g.FruitColor))
	}

	if c.Server.HTTPAddr == "" {
		errs = append(errs, errors.New("server.http_addr must be set"))
	}
	if c.Server.PingInterval >= c.Server.PongWait {
		errs = append(errs, fmt.Errorf("server.ping_interval (%s) must be shorter than server.pong_wait (%s)",
			c.Server.PingInterval, c.Server.PongWait))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	return errors.Join(errs...)
}
