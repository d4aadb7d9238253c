package ws

import "sync"

type connEntry struct {
	client      *Client
	roomID      string
	peerID      string
	displayName string
}

// Registry tracks every live connection and the room it currently occupies.
// All operations are idempotent no-ops on unknown connection ids, so duplicate
// disconnect signals cannot corrupt derived state.
type Registry struct {
	conns map[string]*connEntry
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
	}
}

func (r *Registry) Register(cl *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[cl.ID]; exists {
		return
	}
	r.conns[cl.ID] = &connEntry{client: cl}
}

func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
}

// Room returns the room the connection currently occupies, or "" if the
// connection is unknown or has not joined one.
func (r *Registry) Room(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.conns[connID]; ok {
		return e.roomID
	}
	return ""
}

func (r *Registry) Peer(connID string) (peerID, displayName string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.conns[connID]; ok {
		return e.peerID, e.displayName
	}
	return "", ""
}

// SetRoom records a membership. The previous room and peer identity are
// replaced, never accumulated, so repeated joins cannot leak handlers.
func (r *Registry) SetRoom(connID, roomID, peerID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.conns[connID]; ok {
		e.roomID = roomID
		e.peerID = peerID
		e.displayName = displayName
	}
}

func (r *Registry) ClearRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.conns[connID]; ok {
		e.roomID = ""
		e.peerID = ""
		e.displayName = ""
	}
}

func (r *Registry) Client(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// FindByPeer resolves a peer identifier to its connection, scoped to a room so
// a signal can never escape the sender's meeting.
func (r *Registry) FindByPeer(roomID, peerID string) (*Client, bool) {
	if roomID == "" || peerID == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.conns {
		if e.roomID == roomID && e.peerID == peerID {
			return e.client, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
