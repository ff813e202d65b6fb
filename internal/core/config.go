package core

import "time"

// RuntimeConfig contains the game constants a room is created with.
type RuntimeConfig struct {
	CanvasSize    int     // Playfield extent in canvas units (square)
	CellSize      int     // One grid cell; also the movement step and player size
	TickRate      int     // Simulation ticks per second
	NameMaxLength int     // Player names are truncated to this many runes
	Palette       Palette // Selectable player colours
	FruitColor    Color
	Seed          int64 // RNG seed; 0 means seed from the clock
}

// DefaultConfig returns a RuntimeConfig with the stock game constants.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		CanvasSize:    500,
		CellSize:      25,
		TickRate:      15,
		NameMaxLength: 12,
		Palette:       DefaultPalette(),
		FruitColor:    ColorFruit,
	}
}

// TickInterval returns the duration of one simulation tick.
func (c RuntimeConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.TickRate)
}

// Cells returns the number of cells along one side of the grid.
func (c RuntimeConfig) Cells() int {
	if c.CellSize <= 0 {
		return 0
	}
	return c.CanvasSize / c.CellSize
}
