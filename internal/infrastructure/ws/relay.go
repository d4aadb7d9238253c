package ws

import (
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/metrics"
)

// Relay fans an event out to a room's current membership. It always consults
// the live room table at call time, never a snapshot, so connections that
// joined or left between two broadcasts see the correct set. Delivery is
// best-effort per connection: a recipient that is mid-disconnect or has a full
// buffer is skipped without failing the rest of the broadcast.
type Relay struct {
	rooms    *RoomTable
	registry *Registry
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewRelay(rooms *RoomTable, registry *Registry, logger logging.Logger, m *metrics.Metrics) *Relay {
	return &Relay{
		rooms:    rooms,
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

// Broadcast delivers evt to every connection currently in the room, except
// excludeConnID when non-empty. Returns the number of successful deliveries.
func (r *Relay) Broadcast(roomID string, evt *Event, excludeConnID string) int {
	delivered := 0

	for _, connID := range r.rooms.Occupants(roomID) {
		if connID == excludeConnID {
			continue
		}

		cl, ok := r.registry.Client(connID)
		if !ok {
			continue
		}

		if r.Deliver(cl, evt) {
			delivered++
		}
	}

	return delivered
}

// Deliver queues an event for a single connection. Drops are logged and
// counted but never propagated; the worst client symptom is a missed event
// that self-corrects on the next state change.
func (r *Relay) Deliver(cl *Client, evt *Event) bool {
	if cl.trySend(evt) {
		return true
	}

	if r.metrics != nil {
		r.metrics.DeliveriesDropped.Inc()
	}
	r.logger.Warn(logging.Signaling, logging.Relay, "outbound buffer full, dropping event", map[logging.ExtraKey]any{
		logging.ConnectionID: cl.ID,
		"event":              evt.Type,
	})
	return false
}
