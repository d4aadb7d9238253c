package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendBufferSize = 64

// Client is the server-side handle for one live transport session. The core
// only ever addresses it through its connection id and outbound channel; the
// websocket itself stays owned by the two pump goroutines.
type Client struct {
	ID string

	conn      *connWrapper
	send      chan *Event
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: newConnWrapper(conn),
		send: make(chan *Event, sendBufferSize),
	}
}

// newDetachedClient builds a client with no websocket behind it. Used by tests
// that drive the core directly.
func newDetachedClient() *Client {
	return &Client{
		ID:   uuid.NewString(),
		send: make(chan *Event, sendBufferSize),
	}
}

// trySend queues an event for delivery without ever blocking the dispatch
// loop. A full buffer means the client is too slow or mid-disconnect; the
// event is dropped rather than stalling the room.
func (c *Client) trySend(evt *Event) bool {
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

// shutdown closes the outbound channel exactly once, which ends the write
// pump. Safe to call repeatedly; disconnects are idempotent.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump decodes inbound frames and hands them to the core in arrival
// order. It exits on the first read error and reports the disconnect, which
// the core treats as an implicit leave.
func (c *Client) ReadPump(core *Core) {
	defer func() {
		core.Disconnect(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				core.logger.Debugf("ws read error (conn %s): %v", c.ID, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are indistinguishable from dropped packets to
			// the client; they are logged and skipped.
			core.logger.Debugf("discarding malformed frame (conn %s): %v", c.ID, err)
			continue
		}

		core.Dispatch(c, frame)
	}
}

// WritePump drains the outbound buffer onto the wire until shutdown closes
// it. One pump per connection keeps per-recipient delivery FIFO.
func (c *Client) WritePump() {
	defer func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}()

	for evt := range c.send {
		if err := c.conn.WriteJSON(evt); err != nil {
			return
		}
	}
}
