// Package core provides fundamental types and utilities for the snake server.
// It contains no external dependencies to keep game logic pure and testable.
package core

import "fmt"

// Point is a position on the playfield in canvas units.
// Both coordinates are multiples of the cell size.
type Point struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns the point translated by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// In returns true if the point lies inside a square grid of the given extent.
func (p Point) In(extent int) bool {
	return p.X >= 0 && p.X < extent && p.Y >= 0 && p.Y < extent
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction represents a snake's movement direction.
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Directions lists every direction in a fixed order.
// Used for uniform random picks.
var Directions = [...]Direction{DirUp, DirRight, DirDown, DirLeft}

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirRight:
		return "RIGHT"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

// IsOpposite checks if two directions are opposite.
func (d Direction) IsOpposite(other Direction) bool {
	return d.Opposite() == other
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirLeft
}

// MarshalText encodes the direction as its wire name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a wire name such as "UP".
func (d *Direction) UnmarshalText(text []byte) error {
	for _, candidate := range Directions {
		if candidate.String() == string(text) {
			*d = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid direction %q", string(text))
}

// Delta returns the unit vector for the direction in screen space (y grows down).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// Advance moves p one step in direction d and applies toroidal wrap-around.
func Advance(p Point, d Direction, step, extent int) Point {
	dx, dy := d.Delta()
	return Wrap(p.Add(dx*step, dy*step), step, extent)
}

// Wrap teleports a point that left the grid to the opposite edge.
// Each axis is checked on its own against the step size:
// a coordinate at or below -step becomes extent-step,
// a coordinate at or beyond extent becomes 0.
func Wrap(p Point, step, extent int) Point {
	return Point{X: wrapAxis(p.X, step, extent), Y: wrapAxis(p.Y, step, extent)}
}

func wrapAxis(v, step, extent int) int {
	switch {
	case v <= 0-step:
		return extent - step
	case v >= extent:
		return 0
	default:
		return v
	}
}

// Center returns the grid-aligned centre cell of a square grid.
func Center(extent, step int) Point {
	if step <= 0 {
		return Point{X: extent / 2, Y: extent / 2}
	}
	c := (extent / 2 / step) * step
	return Point{X: c, Y: c}
}
