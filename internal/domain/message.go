package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bevanjebanesan/Lemon/internal/infrastructure/validate"
	"github.com/google/uuid"
)

const maxMessageLength = 2000

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content is too long")
)

// ChatMessage is ephemeral: it exists only for the duration of a single relay
// and is never persisted.
type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	PeerID      string    `json:"peerId"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
}

// NewChatMessage validates the client-supplied fields and stamps the message
// with a server-side timestamp. Client-supplied timestamps are never trusted.
func NewChatMessage(id, roomID, peerID, displayName, content string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxMessageLength {
		return nil, ErrContentTooLong
	}

	validateContent := validate.Compose(
		validate.PrintableText(),
	)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.NewString()
	}

	return &ChatMessage{
		ID:          id,
		RoomID:      roomID,
		PeerID:      peerID,
		DisplayName: displayName,
		Content:     content,
		SentAt:      time.Now().UTC(),
	}, nil
}
