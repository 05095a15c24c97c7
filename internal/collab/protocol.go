package collab

import (
	"encoding/json"

	"github.com/rigkit/rigkit/internal/editor"
)

type Message struct {
	Type     string          `json:"type"`
	SceneID  string          `json:"sceneId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Client → room
	TypePointerDown = "pointer.down"
	TypeAction      = "action"
	TypePropertySet = "property.set"
	TypeConfirm     = "confirm"

	// Room → client
	TypeState          = "state"
	TypeNotify         = "notify"
	TypeConfirmRequest = "confirm.request"
	TypeSnapshot       = "snapshot"
)

// Action names carried by TypeAction messages.
const (
	ActionAddBody             = "body.add"
	ActionAddContainer        = "container.add"
	ActionDelete              = "delete"
	ActionDeselect            = "deselect"
	ActionRemoveFromContainer = "container.remove"
	ActionAssignToContainer   = "container.assign"
	ActionSelectContainer     = "container.select"
	ActionTranslate           = "container.translate"
	ActionRotate              = "container.rotate"
	ActionScale               = "container.scale"
	ActionRename              = "container.rename"
	ActionSave                = "container.save"
	ActionLoad                = "container.load"
	ActionCreateCompound      = "compound.create"
	ActionBreakCompound       = "compound.break"
	ActionPause               = "pause"
	ActionResume              = "resume"
	ActionGravity             = "gravity"
	ActionPublish             = "blueprint.publish"
	ActionImport              = "blueprint.import"
)

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload maps client ids to their last reported presence.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	SceneID  string `json:"sceneId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PointerPayload is a canvas click in world coordinates. Button 0 is the
// primary button and 2 the secondary one, matching DOM MouseEvent.button.
type PointerPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Shift  bool    `json:"shift,omitempty"`
	Ctrl   bool    `json:"ctrl,omitempty"`
}

// ActionPayload names an editor action. Only the fields the action reads
// need to be set.
type ActionPayload struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind,omitempty"`
	Target string  `json:"target,omitempty"`
	Label  string  `json:"label,omitempty"`
	Format string  `json:"format,omitempty"`
	Text   string  `json:"text,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Value  float64 `json:"value,omitempty"`
}

type PropertyPayload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type ConfirmPayload struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

type StatePayload struct {
	UI    editor.UIState       `json:"ui"`
	Draw  []editor.DrawCommand `json:"draw"`
	Steps uint64               `json:"steps"`
}

// SnapshotPayload answers a save or publish. BlueprintID is set once the
// snapshot has been stored in the library.
type SnapshotPayload struct {
	Format      string `json:"format"`
	Text        string `json:"text"`
	BlueprintID string `json:"blueprintId,omitempty"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
