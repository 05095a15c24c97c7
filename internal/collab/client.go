package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024
	sendBuffer = 256
)

// Client is one websocket connection attached to a scene room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	UserID      string
	DisplayName string
	SceneID     string
	ClientID    string
	// Anonymous clients can edit the scene but not use the blueprint
	// library.
	Anonymous bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, sceneID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		SceneID:     sceneID,
		ClientID:    clientID,
	}
}

// Serve pumps the connection until the peer hangs up, the room closes or
// ctx ends. The client is unregistered before Serve returns.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.conn.SetReadLimit(maxMsgSize)
	go c.writeLoop(ctx)

	err := c.readLoop(ctx)
	c.hub.Unregister(c)

	switch {
	case errors.Is(err, errRoomClosed):
		c.conn.Close(websocket.StatusGoingAway, "scene closed")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		c.conn.Close(websocket.StatusNormalClosure, "")
	default:
		slog.Debug("connection dropped", "error", err, "user", c.UserID, "scene", c.SceneID)
		c.conn.Close(websocket.StatusInternalError, "")
	}
}

// readLoop stamps every frame with the sender's identity and hands it to
// the hub. Malformed frames are answered with an error and skipped.
func (c *Client) readLoop(ctx context.Context) error {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			sendError(c, "binary frames are not supported")
			continue
		}

		msg := Message{}
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			sendError(c, "malformed message")
			continue
		}
		msg.SceneID, msg.ClientID, msg.UserID = c.SceneID, c.ClientID, c.UserID

		if err := c.hub.handleMessage(ctx, c, &msg); err != nil {
			return err
		}
	}
}

// writeLoop drains the send queue and keeps the connection alive with
// pings. A closed queue ends the connection.
func (c *Client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write failed", "error", err, "user", c.UserID)
				c.conn.Close(websocket.StatusInternalError, "")
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Send queues msg without blocking. Messages to a full or closed client
// are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("send queue full, dropping message", "type", msg.Type, "user", c.UserID, "scene", c.SceneID)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
