package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalKey is returned for key names outside the movement vocabulary.
var ErrIllegalKey = errors.New("illegal key")

// Key names accepted from clients, upper-cased.
const (
	KeyArrowUp    = "ARROWUP"
	KeyArrowRight = "ARROWRIGHT"
	KeyArrowDown  = "ARROWDOWN"
	KeyArrowLeft  = "ARROWLEFT"
	KeyW          = "W"
	KeyA          = "A"
	KeyS          = "S"
	KeyD          = "D"
)

// keyDirections maps physical keys to movement intents.
// Arrows and WASD are interchangeable.
var keyDirections = map[string]Direction{
	KeyArrowUp:    DirUp,
	KeyW:          DirUp,
	KeyArrowDown:  DirDown,
	KeyS:          DirDown,
	KeyArrowRight: DirRight,
	KeyD:          DirRight,
	KeyArrowLeft:  DirLeft,
	KeyA:          DirLeft,
}

// ParseKey converts a client key name (e.g. "ArrowUp", "w") into a direction.
// Matching is case-insensitive.
func ParseKey(key string) (Direction, error) {
	d, ok := keyDirections[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrIllegalKey, key)
	}
	return d, nil
}
