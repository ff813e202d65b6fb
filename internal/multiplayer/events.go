package multiplayer

import (
	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/games/snake"
)

// SessionEvent represents an event sent from the coordinator to a session.
type SessionEvent interface {
	sessionEvent()
}

// GameSettingsEvent is sent once when a session connects.
type GameSettingsEvent struct {
	CanvasSize          int          `json:"canvasSize" msgpack:"canvasSize"`
	CellSize            int          `json:"cellSize" msgpack:"cellSize"`
	Colors              core.Palette `json:"color" msgpack:"color"`
	PlayerNameMaxLength int          `json:"playerNameMaxLength" msgpack:"playerNameMaxLength"`
	TickRate            int          `json:"tickRate" msgpack:"tickRate"`
}

func (GameSettingsEvent) sessionEvent() {}

// SelectScreenEvent moves a client to the room selection screen.
// RoomID is set when the client arrived with a link to an existing room.
type SelectScreenEvent struct {
	State  RoomState `json:"state" msgpack:"state"`
	RoomID RoomID    `json:"roomId" msgpack:"roomId"`
}

func (SelectScreenEvent) sessionEvent() {}

// JoinRoomEvent carries the roster whenever it changes outside of play.
type JoinRoomEvent struct {
	State   RoomState      `json:"state" msgpack:"state"`
	RoomID  RoomID         `json:"roomId" msgpack:"roomId"`
	Players []snake.Player `json:"players" msgpack:"players"`
}

func (JoinRoomEvent) sessionEvent() {}

// GameUpdateEvent is broadcast once per tick while a room is Playing.
type GameUpdateEvent struct {
	State   RoomState      `json:"state" msgpack:"state"`
	Players []snake.Player `json:"players" msgpack:"players"`
	Fruit   *snake.Fruit   `json:"fruit" msgpack:"fruit"`
	Tick    uint64         `json:"tick" msgpack:"tick"`
}

func (GameUpdateEvent) sessionEvent() {}

// ErrorEvent reports a rejected request to the requesting client only.
type ErrorEvent struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

func (ErrorEvent) sessionEvent() {}

// NewErrorEvent builds an ErrorEvent from a room operation error.
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Code: ErrorCode(err), Message: err.Error()}
}

// CoordinatorMessage represents a message from a session to the coordinator.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// SessionConnectedMsg is sent when a transport connection is established.
type SessionConnectedMsg struct {
	SessionID SessionID
}

func (SessionConnectedMsg) coordinatorMessage() {}

// InitSelectScreenMsg asks for the selection screen, optionally for a linked room.
type InitSelectScreenMsg struct {
	SessionID SessionID
	RoomID    RoomID
}

func (InitSelectScreenMsg) coordinatorMessage() {}

// CreateRoomMsg requests a new room with the sender as its first player.
type CreateRoomMsg struct {
	SessionID SessionID
	Name      string
	Color     core.Color
}

func (CreateRoomMsg) coordinatorMessage() {}

// JoinRoomMsg requests joining an existing room.
type JoinRoomMsg struct {
	SessionID SessionID
	RoomID    RoomID
	Name      string
	Color     core.Color
}

func (JoinRoomMsg) coordinatorMessage() {}

// PlayerReadyMsg toggles the sender's ready flag.
// PlayerID and RoomID are informational; routing uses the session.
type PlayerReadyMsg struct {
	SessionID SessionID
	PlayerID  string
	RoomID    RoomID
}

func (PlayerReadyMsg) coordinatorMessage() {}

// DirectionUpdateMsg carries a raw key name from the client.
type DirectionUpdateMsg struct {
	SessionID SessionID
	PlayerID  string
	KeyDown   string
}

func (DirectionUpdateMsg) coordinatorMessage() {}

// ExitGameMsg removes the sender from its room and returns it to selection.
type ExitGameMsg struct {
	SessionID SessionID
}

func (ExitGameMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is sent when a session disconnects.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}
