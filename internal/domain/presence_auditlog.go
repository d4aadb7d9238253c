package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PresenceEventType string

const (
	EventRoomCreated PresenceEventType = "room_created"
	EventRoomClosed  PresenceEventType = "room_closed"
	EventPeerJoined  PresenceEventType = "peer_joined"
	EventPeerLeft    PresenceEventType = "peer_left"
)

// PresenceAuditLog records a membership change for offline inspection. Only
// presence transitions are logged, never chat content.
type PresenceAuditLog struct {
	ID        string            `bson:"_id" json:"id"`
	RoomID    string            `bson:"room_id" json:"roomId"`
	EventType PresenceEventType `bson:"event_type" json:"eventType"`
	Timestamp time.Time         `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any    `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type PresenceAuditRepository interface {
	Log(ctx context.Context, log *PresenceAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]PresenceAuditLog, error)
	EnsureIndexes(ctx context.Context) error
}

func NewRoomCreatedLog(roomID string) *PresenceAuditLog {
	return &PresenceAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventRoomCreated,
		Timestamp: time.Now(),
		Metadata:  map[string]any{},
	}
}

func NewRoomClosedLog(roomID string) *PresenceAuditLog {
	return &PresenceAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventRoomClosed,
		Timestamp: time.Now(),
		Metadata:  map[string]any{},
	}
}

func NewPeerJoinedLog(roomID, peerID string, occupants int) *PresenceAuditLog {
	return &PresenceAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventPeerJoined,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"peer_id":   peerID,
			"occupants": occupants,
		},
	}
}

func NewPeerLeftLog(roomID, peerID string, occupants int) *PresenceAuditLog {
	return &PresenceAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventPeerLeft,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"peer_id":   peerID,
			"occupants": occupants,
		},
	}
}
