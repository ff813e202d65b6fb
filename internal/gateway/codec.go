package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
)

// Wire event names.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventGameSettings     = "game_settings"
	EventInitSelectScreen = "init_select_screen"
	EventSelectScreen     = "select_screen"
	EventJoinRoom         = "join_room"
	EventCreateRoom       = "create_room"
	EventPlayerReady      = "player_ready"
	EventDirectionUpdate  = "direction_update"
	EventGameUpdate       = "game_update"
	EventExitGame         = "exit_game"
	EventError            = "error"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Envelope is the inbound frame shape.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event" msgpack:"event"`
	Data  any    `json:"data" msgpack:"data"`
}

type selectScreenInput struct {
	RoomID string `json:"roomId"`
}

type roomInput struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

type readyInput struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
}

type directionInput struct {
	PlayerID string `json:"playerId"`
	KeyDown  string `json:"keyDown"`
}

// Codec selects how outbound frames are encoded.
type Codec int

const (
	CodecJSON Codec = iota
	CodecMsgpack
)

// ParseCodec reads the ?codec= query value. Anything unknown means JSON.
func ParseCodec(s string) Codec {
	if strings.EqualFold(s, "msgpack") {
		return CodecMsgpack
	}
	return CodecJSON
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

// Frame is one encoded websocket message.
type Frame struct {
	Type    int // websocket.TextMessage or websocket.BinaryMessage
	Payload []byte
}

// EventName returns the wire name for an outbound event.
func EventName(evt multiplayer.SessionEvent) string {
	switch evt.(type) {
	case multiplayer.GameSettingsEvent:
		return EventGameSettings
	case multiplayer.SelectScreenEvent:
		return EventSelectScreen
	case multiplayer.JoinRoomEvent:
		return EventJoinRoom
	case multiplayer.GameUpdateEvent:
		return EventGameUpdate
	case multiplayer.ErrorEvent:
		return EventError
	default:
		return ""
	}
}

// Encode wraps evt in an envelope. Only game_update frames switch to binary
// under the msgpack codec; control events stay JSON text.
func (c Codec) Encode(evt multiplayer.SessionEvent) (Frame, error) {
	name := EventName(evt)
	if name == "" {
		return Frame{}, fmt.Errorf("encode %T: %w", evt, ErrUnknownEvent)
	}
	env := outbound{Event: name, Data: evt}

	if c == CodecMsgpack && name == EventGameUpdate {
		payload, err := msgpack.Marshal(&env)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s: %w", name, err)
		}
		return Frame{Type: websocket.BinaryMessage, Payload: payload}, nil
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Frame{Type: websocket.TextMessage, Payload: payload}, nil
}

// Decode turns an inbound frame into a coordinator message for the session.
func Decode(id multiplayer.SessionID, raw []byte) (multiplayer.CoordinatorMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Event {
	case EventInitSelectScreen:
		var in selectScreenInput
		if err := decodeData(env, &in); err != nil {
			return nil, err
		}
		return multiplayer.InitSelectScreenMsg{SessionID: id, RoomID: multiplayer.RoomID(in.RoomID)}, nil

	case EventCreateRoom:
		var in roomInput
		if err := decodeData(env, &in); err != nil {
			return nil, err
		}
		return multiplayer.CreateRoomMsg{SessionID: id, Name: in.Name, Color: core.Color(in.Color)}, nil

	case EventJoinRoom:
		var in roomInput
		if err := decodeData(env, &in); err != nil {
			return nil, err
		}
		return multiplayer.JoinRoomMsg{
			SessionID: id,
			RoomID:    multiplayer.RoomID(in.RoomID),
			Name:      in.Name,
			Color:     core.Color(in.Color),
		}, nil

	case EventPlayerReady:
		var in readyInput
		if err := decodeData(env, &in); err != nil {
			return nil, err
		}
		return multiplayer.PlayerReadyMsg{SessionID: id, PlayerID: in.PlayerID, RoomID: multiplayer.RoomID(in.RoomID)}, nil

	case EventDirectionUpdate:
		var in directionInput
		if err := decodeData(env, &in); err != nil {
			return nil, err
		}
		return multiplayer.DirectionUpdateMsg{SessionID: id, PlayerID: in.PlayerID, KeyDown: in.KeyDown}, nil

	case EventExitGame:
		return multiplayer.ExitGameMsg{SessionID: id}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// decodeData allows an absent data field; a present one must match dst.
func decodeData(env Envelope, dst any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedFrame, env.Event, err)
	}
	return nil
}
