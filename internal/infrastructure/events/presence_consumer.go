package events

import (
	"context"
	"encoding/json"

	"github.com/bevanjebanesan/Lemon/internal/domain"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

// presenceConsumer drains the presence queue into the audit repository.
type presenceConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.PresenceAuditRepository
	logger   logging.Logger
}

func NewPresenceConsumer(rabbitmq *messaging.RabbitMQ, audit domain.PresenceAuditRepository, logger logging.Logger) *presenceConsumer {
	return &presenceConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		logger:   logger,
	}
}

func (c *presenceConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.PresenceQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var envelope messaging.AmqpMessage
		if err := json.Unmarshal(msg.Body, &envelope); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal presence envelope", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var data messaging.PresenceEventData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal presence event", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		entry := c.toAuditLog(msg.RoutingKey, data)
		if entry == nil {
			c.logger.Warn(logging.RabbitMQ, logging.ExternalService, "unknown presence routing key", map[logging.ExtraKey]any{
				"routingKey": msg.RoutingKey,
			})
			return nil
		}

		if err := c.audit.Log(ctx, entry); err != nil {
			c.logger.Error(logging.MongoDB, logging.ExternalService, "failed to write audit log", map[logging.ExtraKey]any{
				logging.RoomID:       entry.RoomID,
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		return nil
	})
}

func (c *presenceConsumer) toAuditLog(routingKey string, data messaging.PresenceEventData) *domain.PresenceAuditLog {
	switch routingKey {
	case messaging.KeyRoomCreated:
		return domain.NewRoomCreatedLog(data.RoomID)
	case messaging.KeyRoomClosed:
		return domain.NewRoomClosedLog(data.RoomID)
	case messaging.KeyPeerJoined:
		return domain.NewPeerJoinedLog(data.RoomID, data.PeerID, data.Occupants)
	case messaging.KeyPeerLeft:
		return domain.NewPeerLeftLog(data.RoomID, data.PeerID, data.Occupants)
	}
	return nil
}
