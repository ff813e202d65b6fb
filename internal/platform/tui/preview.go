package tui

import (
	"fmt"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
)

// cellWidth is how many terminal columns one grid cell takes; terminal
// characters are roughly twice as tall as they are wide.
const cellWidth = 2

const (
	borderColor core.Color = "#6c6c6c"
	dimColor    core.Color = "#8a8a8a"
)

// PreviewSize returns the screen size needed to draw a room of the given
// configuration, border included.
func PreviewSize(cfg core.RuntimeConfig) (w, h int) {
	cells := cfg.Cells()
	return cells*cellWidth + 2, cells + 2
}

// DrawRoom draws a room snapshot into s: border, fruit, then every snake
// with its head drawn last. Rooms that are not playing show their state.
func DrawRoom(s *core.Screen, snap multiplayer.RoomSnapshot, cfg core.RuntimeConfig) {
	s.Clear()
	w, h := PreviewSize(cfg)
	s.DrawBox(0, 0, w, h, borderColor)

	if snap.State != multiplayer.StatePlaying {
		mid := h / 2
		s.DrawTextCentered(mid-1, snap.State.String(), dimColor)
		ready := 0
		for _, p := range snap.Players {
			if p.Ready {
				ready++
			}
		}
		s.DrawTextCentered(mid+1, readyLine(ready, len(snap.Players)), dimColor)
		return
	}

	if snap.Fruit != nil {
		plot(s, cfg, snap.Fruit.Position, "()", snap.Fruit.Color)
	}
	for _, p := range snap.Players {
		for _, pos := range p.Positions {
			plot(s, cfg, pos, "██", p.Color)
		}
	}
	for _, p := range snap.Players {
		plot(s, cfg, p.Position, "▓▓", p.Color)
	}
}

// plot draws glyph at the grid cell holding canvas point pos.
func plot(s *core.Screen, cfg core.RuntimeConfig, pos core.Point, glyph string, c core.Color) {
	if cfg.CellSize <= 0 || !pos.In(cfg.CanvasSize) {
		return
	}
	x := pos.X/cfg.CellSize*cellWidth + 1
	y := pos.Y/cfg.CellSize + 1
	s.DrawText(x, y, glyph, c)
}

func readyLine(ready, total int) string {
	if total == 0 {
		return "no players"
	}
	return fmt.Sprintf("%d/%d ready", ready, total)
}
