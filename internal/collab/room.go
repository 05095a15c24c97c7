package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rigkit/rigkit/internal/editor"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/selection"
)

const libraryTimeout = 5 * time.Second

var errRoomClosed = errors.New("room closed")

type RoomConfig struct {
	// TickRate is the fixed simulation step.
	TickRate time.Duration
	// InboxSize bounds the client messages waiting for the room loop.
	InboxSize int
	// IdleTimeout keeps an empty room alive for reconnects. Zero closes it
	// as soon as the last client leaves.
	IdleTimeout time.Duration
	// BroadcastEvery is the number of simulation steps between state pushes.
	BroadcastEvery int
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		TickRate:       time.Second / 60,
		InboxSize:      256,
		IdleTimeout:    5 * time.Minute,
		BroadcastEvery: 2,
	}
}

// Library stores container snapshots outside the scene.
type Library interface {
	Publish(ctx context.Context, ownerID, name string, data []byte) (string, error)
	Fetch(ctx context.Context, id, userID string) ([]byte, error)
}

type inbound struct {
	client *Client
	msg    *Message
	joined bool
}

// Room is one scene. Its goroutine is the only one that touches the
// editor: ticks and client messages are serialised through it.
type Room struct {
	sceneID string
	cfg     RoomConfig
	library Library

	editor *editor.Editor
	queue  *editor.Queue

	presence *presenceBoard

	mu        sync.RWMutex
	clients   map[string]*Client // clientID -> client
	idleSince time.Time

	inbox    chan inbound
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	seq int64
}

func newRoom(sceneID string, cfg RoomConfig, opts editor.Options, library Library) (*Room, error) {
	queue := &editor.Queue{}
	ed, err := editor.New(opts, queue)
	if err != nil {
		return nil, fmt.Errorf("new room %s: %w", sceneID, err)
	}
	return &Room{
		sceneID:   sceneID,
		cfg:       cfg,
		library:   library,
		editor:    ed,
		queue:     queue,
		presence:  newPresenceBoard(),
		clients:   make(map[string]*Client),
		idleSince: time.Now(),
		inbox:     make(chan inbound, cfg.InboxSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

func (r *Room) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.TickRate)
	defer ticker.Stop()
	dt := r.cfg.TickRate.Seconds()

	steps := 0
	for {
		select {
		case <-r.quit:
			return
		case in := <-r.inbox:
			r.handle(in)
		case <-ticker.C:
			if !r.editor.Tick(dt) {
				continue
			}
			steps++
			if steps%r.cfg.BroadcastEvery == 0 {
				r.broadcastState()
			}
		}
	}
}

// stop ends the room loop and waits for it.
func (r *Room) stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

func (r *Room) submit(ctx context.Context, in inbound) error {
	select {
	case r.inbox <- in:
		return nil
	case <-r.quit:
		return errRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) join(c *Client) {
	r.mu.Lock()
	r.clients[c.ClientID] = c
	r.mu.Unlock()

	if err := r.submit(context.Background(), inbound{client: c, joined: true}); err != nil {
		slog.Warn("join closed room", "scene", r.sceneID, "error", err)
	}
}

// leave drops c and closes its send queue. It reports whether the room is
// now empty.
func (r *Room) leave(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ClientID]; !ok {
		return len(r.clients) == 0
	}
	delete(r.clients, c.ClientID)
	c.close()
	r.presence.drop(c.ClientID)
	if len(r.clients) == 0 {
		r.idleSince = time.Now()
		return true
	}
	return false
}

func (r *Room) idle(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0 && now.Sub(r.idleSince) >= r.cfg.IdleTimeout
}

func (r *Room) clientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (r *Room) handle(in inbound) {
	if in.joined {
		if msg := r.stateMessage(); msg != nil {
			in.client.Send(msg)
		}
		return
	}

	msg := in.msg
	var err error
	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			r.editor.PointerDown(selection.PointerEvent{
				Position: geom.V(p.X, p.Y),
				Button:   pointerButton(p.Button),
				Shift:    p.Shift,
				Ctrl:     p.Ctrl,
			})
		}
	case TypeAction:
		var a ActionPayload
		if err = json.Unmarshal(msg.Payload, &a); err == nil {
			err = r.handleAction(in.client, &a)
		}
	case TypePropertySet:
		var p PropertyPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			r.editor.SetProperty(p.Name, p.Value)
		}
	case TypeConfirm:
		var p ConfirmPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			r.editor.ConfirmDelete(p.ID, p.OK)
		}
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		slog.Warn("rejected message", "type", msg.Type, "user", in.client.UserID, "error", err)
		sendError(in.client, err.Error())
		return
	}

	r.flush(in.client)
	r.broadcastState()
}

func (r *Room) handleAction(c *Client, a *ActionPayload) error {
	ed := r.editor
	switch a.Name {
	case ActionAddBody:
		ed.AddBody(a.Kind)
	case ActionAddContainer:
		ed.AddContainer()
	case ActionDelete:
		ed.RequestDelete()
	case ActionDeselect:
		ed.Deselect()
	case ActionRemoveFromContainer:
		ed.RemoveFromContainer()
	case ActionAssignToContainer:
		ed.AssignToContainer(a.Target)
	case ActionSelectContainer:
		ed.SelectContainer(a.Target)
	case ActionTranslate:
		ed.TranslateContainer(a.DX, a.DY)
	case ActionRotate:
		ed.RotateContainer(a.Value)
	case ActionScale:
		ed.ScaleContainer(a.Value)
	case ActionRename:
		ed.RenameContainer(a.Label)
	case ActionSave:
		if text := ed.SaveContainer(a.Format); text != "" {
			r.reply(c, TypeSnapshot, SnapshotPayload{Format: formatName(a.Format), Text: text})
		}
	case ActionLoad:
		ed.LoadContainer(a.Text, a.Format)
	case ActionCreateCompound:
		ed.CreateCompound()
	case ActionBreakCompound:
		ed.BreakCompound()
	case ActionPause:
		ed.Pause()
	case ActionResume:
		ed.Resume()
	case ActionGravity:
		ed.SetGravity(a.Value)
	case ActionPublish:
		r.publish(c, a.Label)
	case ActionImport:
		r.importBlueprint(c, a.Target)
	default:
		return fmt.Errorf("unknown action %q", a.Name)
	}
	return nil
}

func (r *Room) publish(c *Client, name string) {
	if !r.libraryOpen(c) {
		return
	}
	text := r.editor.SaveContainer("json")
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
	defer cancel()
	id, err := r.library.Publish(ctx, c.UserID, name, []byte(text))
	if err != nil {
		slog.Error("publish blueprint", "scene", r.sceneID, "user", c.UserID, "error", err)
		r.notify(editor.SeverityError, "Could not publish blueprint.")
		return
	}
	r.reply(c, TypeSnapshot, SnapshotPayload{Format: "json", Text: text, BlueprintID: id})
	r.notify(editor.SeveritySuccess, fmt.Sprintf("Blueprint %s published.", id))
}

func (r *Room) importBlueprint(c *Client, id string) {
	if !r.libraryOpen(c) {
		return
	}
	if id == "" {
		r.notify(editor.SeverityInfo, "Please select a blueprint to load.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
	defer cancel()
	data, err := r.library.Fetch(ctx, id, c.UserID)
	if err != nil {
		slog.Warn("fetch blueprint", "scene", r.sceneID, "blueprint", id, "error", err)
		r.notify(editor.SeverityError, "Could not load blueprint.")
		return
	}
	r.editor.LoadContainer(string(data), "json")
}

func (r *Room) libraryOpen(c *Client) bool {
	if r.library == nil || c.Anonymous {
		r.notify(editor.SeverityError, "Sign in to use the blueprint library.")
		return false
	}
	return true
}

func (r *Room) notify(sev editor.Severity, text string) {
	r.queue.Notify(editor.Message{Text: text, Severity: sev})
}

// flush delivers queued notifications and confirmation requests to the
// client whose message produced them.
func (r *Room) flush(c *Client) {
	msgs, confirms := r.queue.Drain()
	for _, m := range msgs {
		r.reply(c, TypeNotify, m)
	}
	for _, req := range confirms {
		r.reply(c, TypeConfirmRequest, req)
	}
}

func (r *Room) reply(c *Client, typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		slog.Error("marshal reply", "type", typ, "error", err)
		return
	}
	msg.SceneID = r.sceneID
	c.Send(msg)
}

func (r *Room) stateMessage() *Message {
	r.seq++
	msg, err := newMessage(TypeState, StatePayload{
		UI:    r.editor.UIState(),
		Draw:  r.editor.DrawCommands(),
		Steps: r.editor.Engine().Steps(),
	})
	if err != nil {
		slog.Error("marshal state", "scene", r.sceneID, "error", err)
		return nil
	}
	msg.SceneID = r.sceneID
	msg.Seq = r.seq
	return msg
}

func (r *Room) broadcastState() {
	if r.clientCount() == 0 {
		return
	}
	if msg := r.stateMessage(); msg != nil {
		r.broadcast(msg, "")
	}
}

func pointerButton(b int) selection.Button {
	if b == 2 {
		return selection.ButtonSecondary
	}
	return selection.ButtonPrimary
}

func formatName(f string) string {
	if f == "" {
		return "json"
	}
	return f
}

func sendError(c *Client, text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	c.Send(msg)
}
