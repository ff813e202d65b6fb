package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

//go:embed defaults/snakerooms.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}

// DefaultConfig returns the hardcoded default configuration.
// It mirrors defaults/snakerooms.yaml and is used when the embedded file cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Game: GameConfig{
			TickRate:            15,
			CanvasSize:          500,
			CellSize:            25,
			PlayerNameMaxLength: 12,
			Palette:             core.DefaultPalette(),
			FruitColor:          core.ColorFruit,
		},
		Server: ServerConfig{
			HTTPAddr:       ":3001",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			PingInterval:   10 * time.Second,
			PongWait:       60 * time.Second,
			WriteWait:      10 * time.Second,
			SendBuffer:     256,
		},
		Rooms: RoomsConfig{
			IdleTimeout:   2 * time.Minute,
			CleanupPeriod: 30 * time.Second,
		},
		Storage: StorageConfig{
			DBPath: "~/.snakerooms/scores.db",
		},
		SSH: SSHConfig{
			Enabled:     false,
			Addr:        ":23234",
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
