package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 256
)

type Client struct {
	Hub    *Hub
	Conn   *ws.Conn
	UserID uuid.UUID

	send    chan []byte
	session *Session

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *ws.Conn, userID uuid.UUID) *Client {
	c := &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
	c.session = newSession(c, userID, hub.services)
	return c
}

// Enqueue hands data to the write pump without blocking. A client that cannot keep up is
// disconnected, and its views are rebuilt from snapshots when it reconnects.
func (c *Client) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		slog.Warn("Websocket send buffer full, dropping client", "userID", c.UserID)
		_ = c.Conn.Close()
		return false
	}
}

func (c *Client) sendEvent(event Event) {
	if event.Meta == nil {
		event.Meta = &EventMeta{}
	}
	event.Meta.Timestamp = time.Now().UnixMilli()

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", event.Type)
		return
	}
	c.Enqueue(data)
}

// close stops the write pump and disposes every view. Called once by the hub.
func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()

	c.session.Close()
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure, ws.CloseNormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "error", err, "userID", c.UserID)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendEvent(Event{Type: EventError, Payload: ErrorPayload{Code: http.StatusBadRequest, Message: "Invalid frame"}})
			continue
		}

		c.session.Handle(cmd)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				if !errors.Is(err, ws.ErrCloseSent) {
					slog.Debug("Websocket write failed", "error", err, "userID", c.UserID)
				}
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
