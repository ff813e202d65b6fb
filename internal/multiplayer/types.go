// Package multiplayer owns rooms and their lifecycle: the room state machine,
// the registry routing clients to rooms, the per-room tick scheduler and the
// coordinator that applies client events.
package multiplayer

import (
	"errors"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/games/snake"
)

// SessionID uniquely identifies a client connection.
// It doubles as the player id of the snake the client controls.
type SessionID string

// RoomID uniquely identifies a room.
type RoomID string

// RoomState is the lifecycle state of a room as the client sees it.
type RoomState string

const (
	StateLoading      RoomState = "Loading"
	StateInit         RoomState = "Init"
	StateSelect       RoomState = "Select"
	StateWaitingRoom  RoomState = "WaitingRoom"
	StatePlaying      RoomState = "Playing"
	StateError        RoomState = "Error"
	StateDisconnected RoomState = "Disconnected"
)

// String returns the wire name of the state.
func (s RoomState) String() string {
	return string(s)
}

// Room operation errors. They are reported to the requesting client only.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomAlreadyPlaying = errors.New("room already playing")
	ErrAlreadyInRoom      = errors.New("already in a room")
	ErrNotInRoom          = errors.New("not in a room")
	ErrInvalidColor       = errors.New("color is not in the palette")
	ErrInvalidState       = errors.New("event not allowed in current room state")
)

// ErrorCode maps an error to the stable code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRoomAlreadyPlaying):
		return "room_already_playing"
	case errors.Is(err, ErrAlreadyInRoom):
		return "already_in_room"
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, ErrInvalidColor):
		return "invalid_color"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "bad_request"
	}
}

// JoinInput is what a client supplies to create or join a room.
type JoinInput struct {
	ClientID SessionID
	Name     string
	Color    core.Color
}

// RoomSnapshot is a read-only copy of a room taken under its lock.
type RoomSnapshot struct {
	ID        RoomID         `json:"id"`
	State     RoomState      `json:"state"`
	Players   []snake.Player `json:"players"`
	Fruit     *snake.Fruit   `json:"fruit,omitempty"`
	Tick      uint64         `json:"tick"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Player returns the snapshot's copy of a player.
func (s RoomSnapshot) Player(id SessionID) (snake.Player, bool) {
	for _, p := range s.Players {
		if p.ID == string(id) {
			return p, true
		}
	}
	return snake.Player{}, false
}

// TickResult is produced by one simulation step of a room.
type TickResult struct {
	Snapshot RoomSnapshot
	Lost     []snake.Player // Runs that ended in self-collision this tick, as they were before respawn
}

// RoundSummary describes a Playing session that ended because the room emptied.
type RoundSummary struct {
	RoomID   RoomID
	Players  int // Roster size when the round started
	Ticks    uint64
	Duration time.Duration
}
