package rooms

import "time"

// roomResponse represents one live room and its occupancy
type roomResponse struct {
	ID             string   `json:"id" example:"standup-42"`    // Room identifier chosen by the first joiner
	TotalOccupants int      `json:"totalOccupants" example:"3"` // Number of peers currently in the room
	Occupants      []string `json:"occupants" example:"peer-a"` // Peer identifiers, in join order
}

// roomListResponse represents the full set of live rooms
type roomListResponse struct {
	Rooms []roomResponse `json:"rooms"`             // Every room with at least one occupant
	Total int            `json:"total" example:"2"` // Number of live rooms
}

// auditEntryResponse represents one recorded presence transition
type auditEntryResponse struct {
	ID        string         `json:"id"`                              // Entry identifier
	EventType string         `json:"eventType" example:"peer_joined"` // One of room_created, room_closed, peer_joined, peer_left
	Timestamp time.Time      `json:"timestamp"`                       // When the transition happened
	Metadata  map[string]any `json:"metadata,omitempty"`              // Event-specific details such as the peer id
}

// auditTrailResponse represents a room's recent presence history, newest first
type auditTrailResponse struct {
	RoomID  string               `json:"roomId" example:"standup-42"` // Room the entries belong to
	Entries []auditEntryResponse `json:"entries"`                     // Presence transitions, newest first
	Total   int                  `json:"total" example:"4"`           // Number of entries returned
}
