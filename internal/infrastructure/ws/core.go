package ws

import (
	"encoding/json"
	"time"

	"github.com/bevanjebanesan/Lemon/internal/domain"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/metrics"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/profanity"
)

// PresencePublisher receives membership transitions for out-of-process
// consumers. Implementations must not block: the core calls these from its
// dispatch loop.
type PresencePublisher interface {
	RoomCreated(roomID string)
	RoomClosed(roomID string)
	PeerJoined(roomID, peerID string, occupants int)
	PeerLeft(roomID, peerID string, occupants int)
}

type clientFrame struct {
	client *Client
	frame  inboundFrame
}

// Core owns the session lifecycle: joins, leaves, disconnects, chat relays and
// call-signal routing. Every mutation of the room table and connection
// registry happens on the single goroutine running the Run loop, so each
// inbound event is one atomic unit of work and no locks are held across
// handler boundaries.
type Core struct {
	registry *Registry
	rooms    *RoomTable
	relay    *Relay

	register   chan *Client
	unregister chan *Client
	frames     chan clientFrame
	quit       chan struct{}

	logger    logging.Logger
	filter    *profanity.Filter
	publisher PresencePublisher
	metrics   *metrics.Metrics
}

// Options carries the core's optional collaborators. Every field may be nil.
type Options struct {
	Filter    *profanity.Filter
	Publisher PresencePublisher
	Metrics   *metrics.Metrics
}

func NewCore(logger logging.Logger, opts Options) *Core {
	registry := NewRegistry()
	rooms := NewRoomTable()

	return &Core{
		registry: registry,
		rooms:    rooms,
		relay:    NewRelay(rooms, registry, logger, opts.Metrics),

		// Unbuffered on purpose: a client's read pump blocks until the loop
		// has consumed its previous event, which keeps per-connection
		// ordering exact even across the three channels.
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     make(chan clientFrame),
		quit:       make(chan struct{}),

		logger:    logger,
		filter:    opts.Filter,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
	}
}

func (c *Core) Rooms() *RoomTable   { return c.rooms }
func (c *Core) Registry() *Registry { return c.registry }
func (c *Core) Relay() *Relay       { return c.relay }

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.handleConnect(cl)
		case cl := <-c.unregister:
			c.handleDisconnect(cl)
		case cf := <-c.frames:
			c.handleFrame(cf.client, cf.frame)
		case <-c.quit:
			return
		}
	}
}

func (c *Core) Stop() {
	close(c.quit)
}

func (c *Core) Connect(cl *Client)    { c.register <- cl }
func (c *Core) Disconnect(cl *Client) { c.unregister <- cl }

func (c *Core) Dispatch(cl *Client, frame inboundFrame) {
	c.frames <- clientFrame{client: cl, frame: frame}
}

func (c *Core) handleConnect(cl *Client) {
	c.registry.Register(cl)
	if c.metrics != nil {
		c.metrics.ActiveConnections.Set(float64(c.registry.Len()))
	}
}

// handleDisconnect is the implicit, immediate leave. It is idempotent: a
// duplicate disconnect finds no registry entry and every step below degrades
// to a no-op.
func (c *Core) handleDisconnect(cl *Client) {
	if roomID := c.registry.Room(cl.ID); roomID != "" {
		c.leaveRoom(cl, roomID)
	}

	c.registry.Unregister(cl.ID)
	cl.shutdown()

	if c.metrics != nil {
		c.metrics.ActiveConnections.Set(float64(c.registry.Len()))
	}
}

func (c *Core) handleFrame(cl *Client, frame inboundFrame) {
	switch frame.Type {
	case JoinRoom:
		var payload JoinPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			c.logger.Debugf("bad join-room payload (conn %s): %v", cl.ID, err)
			return
		}
		c.handleJoin(cl, frame.RoomID, payload.PeerID, payload.DisplayName)

	case LeaveRoom:
		if roomID := c.registry.Room(cl.ID); roomID != "" {
			c.leaveRoom(cl, roomID)
		}

	case SendMessage:
		var payload ChatPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			c.logger.Debugf("bad send-message payload (conn %s): %v", cl.ID, err)
			return
		}
		c.handleChat(cl, frame.RoomID, payload)

	case CallSignal:
		var payload SignalPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			c.logger.Debugf("bad call-signal payload (conn %s): %v", cl.ID, err)
			return
		}
		c.handleSignal(cl, payload)

	default:
		c.logger.Debugf("unknown event %q (conn %s)", frame.Type, cl.ID)
	}
}

// handleJoin places the connection in a room. A connection belongs to at most
// one room: joining while a member elsewhere performs the implicit leave of
// the prior room, with its departure announced first, before the new join is
// processed.
func (c *Core) handleJoin(cl *Client, roomID, peerID, displayName string) {
	if roomID == "" || peerID == "" {
		if c.metrics != nil {
			c.metrics.JoinsRejected.Inc()
		}
		c.logger.Warn(logging.Signaling, logging.Join, "rejecting join with empty room or peer id", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.RoomID:       roomID,
			logging.PeerID:       peerID,
		})
		return
	}

	if err := domain.ValidatePeerID(peerID); err != nil {
		if c.metrics != nil {
			c.metrics.JoinsRejected.Inc()
		}
		c.logger.Warn(logging.Validation, logging.Join, "rejecting join", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}
	if err := domain.ValidateDisplayName(displayName); err != nil {
		displayName = ""
	}

	if current := c.registry.Room(cl.ID); current != "" {
		if current == roomID {
			// Re-join of the same room replaces the peer identity instead of
			// stacking a second membership.
			c.registry.SetRoom(cl.ID, roomID, peerID, displayName)
			c.relay.Broadcast(roomID, NewOccupantCount(roomID, c.rooms.Count(roomID)), "")
			return
		}
		c.leaveRoom(cl, current)
	}

	count := c.rooms.Join(roomID, cl.ID)
	c.registry.SetRoom(cl.ID, roomID, peerID, displayName)

	if count == 1 && c.publisher != nil {
		c.publisher.RoomCreated(roomID)
	}

	c.relay.Broadcast(roomID, NewPeerConnected(roomID, peerID, displayName), cl.ID)
	c.relay.Broadcast(roomID, NewOccupantCount(roomID, count), "")

	if c.publisher != nil {
		c.publisher.PeerJoined(roomID, peerID, count)
	}
	if c.metrics != nil {
		c.metrics.JoinsTotal.Inc()
		c.metrics.LiveRooms.Set(float64(c.rooms.Len()))
	}

	c.logger.Info(logging.Signaling, logging.Join, "peer joined room", map[logging.ExtraKey]any{
		logging.ConnectionID: cl.ID,
		logging.RoomID:       roomID,
		logging.PeerID:       peerID,
		"occupants":          count,
	})
}

// leaveRoom removes the membership, announces the departure to the remaining
// occupants and pushes the updated count. The registry entry is cleared before
// anything is announced so a stale membership can never route messages from a
// later join back into this room.
func (c *Core) leaveRoom(cl *Client, roomID string) {
	peerID, _ := c.registry.Peer(cl.ID)

	count := c.rooms.Leave(roomID, cl.ID)
	c.registry.ClearRoom(cl.ID)

	c.relay.Broadcast(roomID, NewPeerDisconnected(roomID, peerID), cl.ID)
	c.relay.Broadcast(roomID, NewOccupantCount(roomID, count), cl.ID)

	if c.publisher != nil {
		c.publisher.PeerLeft(roomID, peerID, count)
		if count == 0 {
			c.publisher.RoomClosed(roomID)
		}
	}
	if c.metrics != nil {
		c.metrics.LiveRooms.Set(float64(c.rooms.Len()))
	}

	c.logger.Info(logging.Signaling, logging.Leave, "peer left room", map[logging.ExtraKey]any{
		logging.ConnectionID: cl.ID,
		logging.RoomID:       roomID,
		logging.PeerID:       peerID,
		"occupants":          count,
	})
}

// handleChat relays a chat message to the full room, sender included, so the
// sending client renders the same server-stamped copy everyone else sees.
func (c *Core) handleChat(cl *Client, roomID string, payload ChatPayload) {
	current := c.registry.Room(cl.ID)
	if roomID == "" || current != roomID {
		c.logger.Debug(logging.Signaling, logging.Chat, "dropping chat from non-member", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.RoomID:       roomID,
		})
		return
	}

	// The registry's peer id is the source of truth; the claimed one is only
	// a fallback display value.
	peerID, registeredName := c.registry.Peer(cl.ID)
	displayName := payload.DisplayName
	if displayName == "" || domain.ValidateDisplayName(displayName) != nil {
		displayName = registeredName
	}

	msg, err := domain.NewChatMessage(payload.ID, roomID, peerID, displayName, payload.Content)
	if err != nil {
		c.logger.Debug(logging.Validation, logging.Chat, "dropping invalid chat message", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	if c.filter != nil && c.filter.ContainsProfanity(msg.Content) {
		c.logger.Warn(logging.Signaling, logging.Chat, "dropping message that failed the profanity filter", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.RoomID:       roomID,
		})
		return
	}

	evt := NewMessageReceived(roomID, msg.ID, msg.Content, msg.PeerID, msg.DisplayName, msg.SentAt.Format(time.RFC3339))
	c.relay.Broadcast(roomID, evt, "")

	if c.metrics != nil {
		c.metrics.MessagesRelayed.Inc()
	}
}

// handleSignal routes an opaque call-setup payload to the connection that
// currently holds the target peer id within the sender's room. An unknown
// target is a silent no-op; the initiating peer's own retry logic handles it.
func (c *Core) handleSignal(cl *Client, payload SignalPayload) {
	roomID := c.registry.Room(cl.ID)
	if roomID == "" || payload.TargetPeerID == "" {
		return
	}

	target, ok := c.registry.FindByPeer(roomID, payload.TargetPeerID)
	if !ok || target.ID == cl.ID {
		c.logger.Debug(logging.Signaling, logging.CallSignal, "no route for call signal", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.RoomID:       roomID,
			"targetPeerId":       payload.TargetPeerID,
		})
		return
	}

	senderPeerID, _ := c.registry.Peer(cl.ID)
	c.relay.Deliver(target, NewCallSignal(roomID, senderPeerID, payload.Signal))

	if c.metrics != nil {
		c.metrics.SignalsRelayed.Inc()
	}
}
