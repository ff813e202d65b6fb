// Package snake implements the authoritative snake rules: spawning players and fruit,
// and advancing one player by one tick.
package snake

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

// Player is one snake in a room.
// Position is the head; Positions is the trail, newest cell first.
type Player struct {
	ID        string         `json:"id" msgpack:"id"`
	RoomID    string         `json:"roomId" msgpack:"roomId"`
	Name      string         `json:"name" msgpack:"name"`
	Color     core.Color     `json:"color" msgpack:"color"`
	Size      int            `json:"size" msgpack:"size"`
	Ready     bool           `json:"ready" msgpack:"ready"`
	Points    int            `json:"points" msgpack:"points"`
	Direction core.Direction `json:"direction" msgpack:"direction"`
	Position  core.Point     `json:"position" msgpack:"position"`
	Positions []core.Point   `json:"positions" msgpack:"positions"`
}

// Fruit is the single collectible of a playing room.
type Fruit struct {
	Color    core.Color `json:"color" msgpack:"color"`
	Size     int        `json:"size" msgpack:"size"`
	Position core.Point `json:"position" msgpack:"position"`
}

// Factory creates players and fruit for one room.
// It owns the room's RNG and is not safe for concurrent use; callers serialise access.
type Factory struct {
	cfg core.RuntimeConfig
	rng *rand.Rand
}

// NewFactory creates a factory seeded from cfg.Seed (0 seeds from the clock).
func NewFactory(cfg core.RuntimeConfig) *Factory {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Config returns the constants the factory was built with.
func (f *Factory) Config() core.RuntimeConfig {
	return f.cfg
}

// SpawnPlayer creates a fresh snake at the grid centre heading in a random direction.
func (f *Factory) SpawnPlayer(id, roomID string, color core.Color, name string) Player {
	return f.spawn(id, roomID, color, NormalizeName(name, f.cfg.NameMaxLength))
}

// Respawn replaces a player after a self-collision.
// Identity, colour and name carry over; everything else starts from scratch.
func (f *Factory) Respawn(p Player) Player {
	return f.spawn(p.ID, p.RoomID, p.Color, p.Name)
}

func (f *Factory) spawn(id, roomID string, color core.Color, name string) Player {
	return Player{
		ID:        id,
		RoomID:    roomID,
		Name:      name,
		Color:     color,
		Size:      f.cfg.CellSize,
		Direction: core.Directions[f.rng.Intn(len(core.Directions))],
		Position:  core.Center(f.cfg.CanvasSize, f.cfg.CellSize),
		Positions: []core.Point{},
	}
}

// SpawnFruit places a fruit on a random cell.
// Occupied cells are not excluded, so fruit may appear under a snake.
func (f *Factory) SpawnFruit() Fruit {
	cells := f.cfg.Cells()
	if cells <= 0 {
		cells = 1
	}
	return Fruit{
		Color: f.cfg.FruitColor,
		Size:  f.cfg.CellSize,
		Position: core.Point{
			X: f.rng.Intn(cells) * f.cfg.CellSize,
			Y: f.rng.Intn(cells) * f.cfg.CellSize,
		},
	}
}

// NormalizeName trims a display name, truncates it to maxLen runes and
// upper-cases its first letter. A maxLen of zero or less disables truncation.
func NormalizeName(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		name = string([]rune(name)[:maxLen])
	}
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}
