package gateway

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
)

// maxMessageSize bounds inbound frames; client events are tiny.
const maxMessageSize = 4096

// Client is one websocket connection. It owns the ChannelSession the
// coordinator writes to and pumps frames in both directions.
type Client struct {
	conn    *websocket.Conn
	session *multiplayer.ChannelSession
	codec   Codec
	coord   *multiplayer.Coordinator
	timing  Timing
	logger  *log.Logger
}

// Timing holds the heartbeat settings of a connection.
type Timing struct {
	PingInterval time.Duration // How often pings are sent
	PongWait     time.Duration // Read deadline, extended on every pong
	WriteWait    time.Duration // Deadline for each write
}

func newClient(conn *websocket.Conn, session *multiplayer.ChannelSession, codec Codec, coord *multiplayer.Coordinator, timing Timing, logger *log.Logger) *Client {
	return &Client{
		conn:    conn,
		session: session,
		codec:   codec,
		coord:   coord,
		timing:  timing,
		logger:  logger,
	}
}

// readPump decodes inbound frames and forwards them to the coordinator.
// On exit it closes the session, which stops the write pump, and reports
// the disconnect.
func (c *Client) readPump() {
	defer func() {
		c.session.Close()
		c.coord.Send(multiplayer.SessionDisconnectedMsg{SessionID: c.session.ID()})
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", "err", err)
			} else {
				c.logger.Debug("read ended", "err", err)
			}
			return
		}

		msg, err := Decode(c.session.ID(), raw)
		if err != nil {
			c.logger.Debug("dropping frame", "err", err)
			if errors.Is(err, ErrMalformedFrame) {
				c.session.Send(multiplayer.ErrorEvent{Code: "bad_request", Message: err.Error()})
			}
			continue
		}
		c.coord.Send(msg)
	}
}

// writePump drains the session queue onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.timing.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.session.Events():
			frame, err := c.codec.Encode(evt)
			if err != nil {
				c.logger.Error("encode failed", "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timing.WriteWait))
			if err := c.conn.WriteMessage(frame.Type, frame.Payload); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timing.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "err", err)
				return
			}

		case <-c.session.Done():
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.timing.WriteWait),
			)
			return
		}
	}
}
