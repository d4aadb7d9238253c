package ws

// Wire event names. Client → server events invoke lifecycle operations; server →
// client events fan presence, chat and call-setup state out to room members.
const (
	JoinRoom  = "join-room"
	LeaveRoom = "leave-room"

	PeerConnected    = "peer-connected"
	PeerDisconnected = "peer-disconnected"
	OccupantCount    = "occupant-count"

	SendMessage    = "send-message"
	ReceiveMessage = "receive-message"

	CallSignal = "call-signal"
)
