package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rigkit/rigkit/internal/editor"
)

const reapInterval = time.Second

// Hub routes clients to scene rooms, creating a room on first join and
// closing it once it has been empty for RoomConfig.IdleTimeout.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // sceneID -> room

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	cfg     RoomConfig
	opts    editor.Options
	library Library
}

// NewHub creates a hub whose rooms run editors built from opts. A nil
// library disables blueprint actions.
func NewHub(cfg RoomConfig, opts editor.Options, library Library) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		cfg:        cfg,
		opts:       opts,
		library:    library,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	h.mu.RLock()
	interval := reapInterval
	if idle := h.cfg.IdleTimeout; idle > 0 && idle/2 < interval {
		interval = max(idle/2, 10*time.Millisecond)
	}
	h.mu.RUnlock()
	reap := time.NewTicker(interval)
	defer reap.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case now := <-reap.C:
			h.reapIdle(now)
		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop closes every room and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// SetDefaults changes the settings used for rooms opened from now on.
// Open rooms keep theirs.
func (h *Hub) SetDefaults(cfg RoomConfig, opts editor.Options) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
	h.opts = opts
}

// RoomCount returns the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		var err error
		room, err = newRoom(client.SceneID, h.cfg, h.opts, h.library)
		if err != nil {
			h.mu.Unlock()
			slog.Error("open room", "scene", client.SceneID, "error", err)
			sendError(client, "could not open scene")
			client.close()
			return
		}
		h.rooms[client.SceneID] = room
		go room.run()
		slog.Info("room opened", "scene", client.SceneID)
	}
	h.mu.Unlock()

	welcome, _ := newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, SceneID: client.SceneID})
	client.Send(welcome)

	if others, err := room.presence.message(); err == nil {
		client.Send(others)
	} else {
		slog.Error("marshal presence state", "error", err)
	}

	joinMsg, _ := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	room.broadcast(joinMsg, client.ClientID)

	room.join(client)

	slog.Info("client joined", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		h.mu.Unlock()
		client.close()
		return
	}
	closeNow := room.leave(client) && room.cfg.IdleTimeout <= 0
	if closeNow {
		delete(h.rooms, client.SceneID)
	}
	h.mu.Unlock()

	if closeNow {
		room.stop()
		slog.Info("room closed", "scene", client.SceneID)
	}

	leaveMsg, _ := newMessage(TypePresenceLeave, PresenceLeavePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
	})
	leaveMsg.UserID = client.UserID
	room.broadcast(leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) reapIdle(now time.Time) {
	var idle []*Room
	h.mu.Lock()
	for id, room := range h.rooms {
		if room.idle(now) {
			delete(h.rooms, id)
			idle = append(idle, room)
		}
	}
	h.mu.Unlock()

	for _, room := range idle {
		room.stop()
		slog.Info("room closed", "scene", room.sceneID, "reason", "idle")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		room.mu.Lock()
		for _, c := range room.clients {
			c.close()
		}
		room.mu.Unlock()
		room.stop()
	}
}

// handleMessage applies presence directly and queues everything else on
// the sender's room.
func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) error {
	h.mu.RLock()
	room, ok := h.rooms[sender.SceneID]
	h.mu.RUnlock()
	if !ok {
		return errRoomClosed
	}

	if msg.Type == TypePresenceUpdate {
		h.handlePresenceUpdate(room, sender, msg)
		return nil
	}
	return room.submit(ctx, inbound{client: sender, msg: msg})
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	outMsg, err := newMessage(TypePresenceUpdate, room.presence.set(sender.ClientID, presence))
	if err != nil {
		return
	}
	outMsg.UserID = sender.UserID
	room.broadcast(outMsg, sender.ClientID)
}
