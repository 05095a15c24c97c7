package collab

import (
	"sync"
)

// maxPresenceSelection caps how many selected ids one client may advertise.
const maxPresenceSelection = 64

// presenceBoard holds the last cursor and selection each connected client
// reported. Entries are keyed by client id so two tabs of one user keep
// separate cursors. The board never touches the editor.
type presenceBoard struct {
	mu      sync.RWMutex
	entries map[string]PresencePayload
}

func newPresenceBoard() *presenceBoard {
	return &presenceBoard{entries: make(map[string]PresencePayload)}
}

// set records p for clientID and returns the stored copy.
func (b *presenceBoard) set(clientID string, p PresencePayload) PresencePayload {
	if len(p.Selection) > maxPresenceSelection {
		p.Selection = p.Selection[:maxPresenceSelection]
	}
	b.mu.Lock()
	b.entries[clientID] = p
	b.mu.Unlock()
	return p
}

func (b *presenceBoard) drop(clientID string) {
	b.mu.Lock()
	delete(b.entries, clientID)
	b.mu.Unlock()
}

// message builds the presence.state greeting for a joining client.
func (b *presenceBoard) message() (*Message, error) {
	b.mu.RLock()
	all := make(map[string]*PresencePayload, len(b.entries))
	for id, p := range b.entries {
		all[id] = &p
	}
	b.mu.RUnlock()
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
}
