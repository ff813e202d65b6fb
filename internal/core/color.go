package core

import "strings"

// Color is a CSS hex colour used by the browser client.
type Color string

// Selectable player colours.
const (
	ColorRed    Color = "#cc0000"
	ColorGreen  Color = "#009a3e"
	ColorBlue   Color = "#3498db"
	ColorOrange Color = "#ff8800"
	ColorPurple Color = "#8e44ad"
)

// ColorFruit is reserved for fruit and never offered to players.
const ColorFruit Color = "#FF0000"

// Equal compares colours case-insensitively.
func (c Color) Equal(other Color) bool {
	return strings.EqualFold(string(c), string(other))
}

// Palette maps colour names (as shown to players) to colours.
type Palette map[string]Color

// DefaultPalette returns the stock five-colour palette.
func DefaultPalette() Palette {
	return Palette{
		"red":    ColorRed,
		"green":  ColorGreen,
		"blue":   ColorBlue,
		"orange": ColorOrange,
		"purple": ColorPurple,
	}
}

// Contains reports whether c is one of the palette colours.
func (p Palette) Contains(c Color) bool {
	for _, candidate := range p {
		if candidate.Equal(c) {
			return true
		}
	}
	return false
}
