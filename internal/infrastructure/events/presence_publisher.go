package events

import (
	"context"
	"encoding/json"

	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/messaging"
)

type presenceEvent struct {
	routingKey string
	data       messaging.PresenceEventData
}

// PresencePublisher forwards membership transitions to the presence exchange.
// The signaling core calls the publish methods from its dispatch loop, so they
// only enqueue; the actual AMQP I/O happens on the Run goroutine.
type PresencePublisher struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
	queue    chan presenceEvent
}

func NewPresencePublisher(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *PresencePublisher {
	return &PresencePublisher{
		rabbitmq: rabbitmq,
		logger:   logger,
		queue:    make(chan presenceEvent, 256),
	}
}

func (p *PresencePublisher) Run() {
	for evt := range p.queue {
		payload, err := json.Marshal(evt.data)
		if err != nil {
			p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to marshal presence event", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		err = p.rabbitmq.PublishMessage(context.Background(), evt.routingKey, messaging.AmqpMessage{
			RoomID: evt.data.RoomID,
			Data:   payload,
		})
		if err != nil {
			p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to publish presence event", map[logging.ExtraKey]any{
				logging.RoomID:       evt.data.RoomID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}

func (p *PresencePublisher) Close() {
	close(p.queue)
}

// enqueue never blocks; when the buffer is full the event is dropped, which is
// acceptable for an advisory audit stream.
func (p *PresencePublisher) enqueue(routingKey string, data messaging.PresenceEventData) {
	select {
	case p.queue <- presenceEvent{routingKey: routingKey, data: data}:
	default:
		p.logger.Warn(logging.RabbitMQ, logging.ExternalService, "presence event queue full, dropping event", map[logging.ExtraKey]any{
			logging.RoomID: data.RoomID,
		})
	}
}

func (p *PresencePublisher) RoomCreated(roomID string) {
	p.enqueue(messaging.KeyRoomCreated, messaging.PresenceEventData{RoomID: roomID, Occupants: 1})
}

func (p *PresencePublisher) RoomClosed(roomID string) {
	p.enqueue(messaging.KeyRoomClosed, messaging.PresenceEventData{RoomID: roomID})
}

func (p *PresencePublisher) PeerJoined(roomID, peerID string, occupants int) {
	p.enqueue(messaging.KeyPeerJoined, messaging.PresenceEventData{RoomID: roomID, PeerID: peerID, Occupants: occupants})
}

func (p *PresencePublisher) PeerLeft(roomID, peerID string, occupants int) {
	p.enqueue(messaging.KeyPeerLeft, messaging.PresenceEventData{RoomID: roomID, PeerID: peerID, Occupants: occupants})
}
