package ws

import "sync"

type room struct {
	// occupants preserves join order so membership snapshots are deterministic.
	occupants []string
	index     map[string]struct{}
}

// RoomTable maps a meeting identifier to its occupant set. A room exists only
// while it has occupants: the last leave removes the entry entirely, so no
// reaper is needed and a re-created room starts from a clean slate.
type RoomTable struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms: make(map[string]*room),
	}
}

// Join adds the connection to the room, creating the room if absent, and
// returns the new occupant count. Joining a room twice is a no-op.
func (t *RoomTable) Join(roomID, connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rm, ok := t.rooms[roomID]
	if !ok {
		rm = &room{
			occupants: make([]string, 0, 4),
			index:     make(map[string]struct{}),
		}
		t.rooms[roomID] = rm
	}

	if _, exists := rm.index[connID]; !exists {
		rm.occupants = append(rm.occupants, connID)
		rm.index[connID] = struct{}{}
	}

	return len(rm.occupants)
}

// Leave removes the connection and returns the remaining occupant count.
// Leaving a room one is not in is a silent no-op on the unchanged count; the
// room entry is deleted when the count reaches zero.
func (t *RoomTable) Leave(roomID, connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rm, ok := t.rooms[roomID]
	if !ok {
		return 0
	}

	if _, exists := rm.index[connID]; exists {
		delete(rm.index, connID)
		for i, id := range rm.occupants {
			if id == connID {
				rm.occupants = append(rm.occupants[:i], rm.occupants[i+1:]...)
				break
			}
		}
	}

	if len(rm.occupants) == 0 {
		delete(t.rooms, roomID)
		return 0
	}

	return len(rm.occupants)
}

// Count returns the live occupant count, or zero for a room that does not
// exist.
func (t *RoomTable) Count(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rm, ok := t.rooms[roomID]; ok {
		return len(rm.occupants)
	}
	return 0
}

// Occupants returns a copy of the room's membership in join order.
func (t *RoomTable) Occupants(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rm, ok := t.rooms[roomID]
	if !ok {
		return nil
	}

	out := make([]string, len(rm.occupants))
	copy(out, rm.occupants)
	return out
}

// Contains reports whether the connection is currently in the room.
func (t *RoomTable) Contains(roomID, connID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rm, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	_, exists := rm.index[connID]
	return exists
}

// RoomInfo is a read-only occupancy snapshot for the HTTP surface.
type RoomInfo struct {
	ID        string   `json:"id"`
	Occupants []string `json:"occupants"`
}

func (t *RoomTable) Snapshot() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]RoomInfo, 0, len(t.rooms))
	for id, rm := range t.rooms {
		occupants := make([]string, len(rm.occupants))
		copy(occupants, rm.occupants)
		out = append(out, RoomInfo{ID: id, Occupants: occupants})
	}
	return out
}

func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rooms)
}
