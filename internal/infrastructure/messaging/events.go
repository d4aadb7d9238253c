package messaging

const (
	PresenceQueue   = "presence_audit"
	DeadLetterQueue = "dead_letter_queue"
)

// Routing keys for presence events
const (
	KeyRoomCreated = "presence.room_created"
	KeyRoomClosed  = "presence.room_closed"
	KeyPeerJoined  = "presence.peer_joined"
	KeyPeerLeft    = "presence.peer_left"
)

// AmqpMessage is the envelope published to the presence exchange.
type AmqpMessage struct {
	RoomID string `json:"roomId"`
	Data   []byte `json:"data"`
}

type PresenceEventData struct {
	RoomID    string `json:"roomId"`
	PeerID    string `json:"peerId,omitempty"`
	Occupants int    `json:"occupants"`
}
