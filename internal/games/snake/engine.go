package snake

import "github.com/vovakirdan/snake-rooms/internal/core"

// StepResult describes what happened to one player during a tick.
type StepResult struct {
	Player    Player // State after the tick
	Ate       bool   // Head landed on the fruit
	Respawned bool   // Head hit the player's own trail
	Lost      Player // Pre-respawn state, set only when Respawned
}

// Turn commits a direction change immediately.
// Reversing onto the snake's own neck is refused and reported as false.
func Turn(p *Player, d core.Direction) bool {
	if !d.Valid() || p.Direction.IsOpposite(d) {
		return false
	}
	p.Direction = d
	return true
}

// Step advances one player by one cell.
// Order: advance head, check fruit, update tail, commit, check self-collision.
// The input player is not modified.
func (f *Factory) Step(p Player, fruit Fruit) StepResult {
	newHead := core.Advance(p.Position, p.Direction, f.cfg.CellSize, f.cfg.CanvasSize)

	ate := newHead == fruit.Position
	points := p.Points
	if ate {
		points++
	}

	trail := make([]core.Point, 0, len(p.Positions)+1)
	trail = append(trail, p.Position)
	trail = append(trail, p.Positions...)
	if !ate {
		trail = trail[:len(trail)-1]
	}

	next := p
	next.Points = points
	next.Position = newHead
	next.Positions = trail

	if Occupies(trail, newHead) {
		return StepResult{
			Player:    f.Respawn(next),
			Ate:       ate,
			Respawned: true,
			Lost:      next,
		}
	}

	return StepResult{Player: next, Ate: ate}
}

// Occupies reports whether any cell of trail equals pt.
func Occupies(trail []core.Point, pt core.Point) bool {
	for _, c := range trail {
		if c == pt {
			return true
		}
	}
	return false
}
