package ws

import "encoding/json"

type Event struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// inboundFrame is the envelope clients send. Data is decoded per event type.
type inboundFrame struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Payload structs
type JoinPayload struct {
	PeerID      string `json:"peerId"`
	DisplayName string `json:"displayName,omitempty"`
}

type PeerPayload struct {
	PeerID      string `json:"peerId"`
	DisplayName string `json:"displayName,omitempty"`
}

type OccupantCountPayload struct {
	TotalOccupants int `json:"totalOccupants"`
}

type ChatPayload struct {
	ID          string `json:"id,omitempty"`
	PeerID      string `json:"peerId"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
}

type MessagePayload struct {
	ID          string `json:"id"`
	PeerID      string `json:"peerId"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}

// SignalPayload carries an opaque handshake blob between two peers. The server
// never inspects Signal; it only swaps the addressing around it.
type SignalPayload struct {
	TargetPeerID string          `json:"targetPeerId,omitempty"`
	SenderPeerID string          `json:"senderPeerId,omitempty"`
	Signal       json.RawMessage `json:"signal"`
}

func NewPeerConnected(roomID, peerID, displayName string) *Event {
	return &Event{
		Type:   PeerConnected,
		RoomID: roomID,
		Data: PeerPayload{
			PeerID:      peerID,
			DisplayName: displayName,
		},
	}
}

func NewPeerDisconnected(roomID, peerID string) *Event {
	return &Event{
		Type:   PeerDisconnected,
		RoomID: roomID,
		Data: PeerPayload{
			PeerID: peerID,
		},
	}
}

func NewOccupantCount(roomID string, total int) *Event {
	return &Event{
		Type:   OccupantCount,
		RoomID: roomID,
		Data: OccupantCountPayload{
			TotalOccupants: total,
		},
	}
}

func NewMessageReceived(roomID, msgID, content, peerID, displayName, timestamp string) *Event {
	return &Event{
		Type:   ReceiveMessage,
		RoomID: roomID,
		Data: MessagePayload{
			ID:          msgID,
			Content:     content,
			PeerID:      peerID,
			DisplayName: displayName,
			Timestamp:   timestamp,
		},
	}
}

func NewCallSignal(roomID, senderPeerID string, signal json.RawMessage) *Event {
	return &Event{
		Type:   CallSignal,
		RoomID: roomID,
		Data: SignalPayload{
			SenderPeerID: senderPeerID,
			Signal:       signal,
		},
	}
}
