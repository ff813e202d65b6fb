package snake

import "github.com/vovakirdan/snake-rooms/internal/core"

// Clone returns a deep copy of the player so the trail can be shared safely.
func (p Player) Clone() Player {
	c := p
	c.Positions = make([]core.Point, len(p.Positions))
	copy(c.Positions, p.Positions)
	return c
}

// Length returns the number of cells the snake occupies (head included).
func (p Player) Length() int {
	return len(p.Positions) + 1
}

// Cells returns head then trail.
func (p Player) Cells() []core.Point {
	cells := make([]core.Point, 0, p.Length())
	cells = append(cells, p.Position)
	return append(cells, p.Positions...)
}

// ClonePlayers deep-copies a roster.
func ClonePlayers(players []Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}
