package ws

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/profanity"
)

// recorderPublisher captures presence transitions for assertions.
type recorderPublisher struct {
	roomCreated []string
	roomClosed  []string
	peerJoined  []string
	peerLeft    []string
}

func (r *recorderPublisher) RoomCreated(roomID string) { r.roomCreated = append(r.roomCreated, roomID) }
func (r *recorderPublisher) RoomClosed(roomID string)  { r.roomClosed = append(r.roomClosed, roomID) }
func (r *recorderPublisher) PeerJoined(roomID, peerID string, occupants int) {
	r.peerJoined = append(r.peerJoined, peerID)
}
func (r *recorderPublisher) PeerLeft(roomID, peerID string, occupants int) {
	r.peerLeft = append(r.peerLeft, peerID)
}

func newTestCore(opts Options) *Core {
	return NewCore(logging.NewNop(), opts)
}

// connect attaches a detached client directly through the handler, the same
// code path the dispatch loop uses.
func connect(c *Core) *Client {
	cl := newDetachedClient()
	c.handleConnect(cl)
	return cl
}

// drain empties the client's outbound buffer and returns the queued events in
// delivery order.
func drain(cl *Client) []*Event {
	var out []*Event
	for {
		select {
		case evt, ok := <-cl.send:
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func eventTypes(events []*Event) []string {
	types := make([]string, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.Type)
	}
	return types
}

func TestJoinAnnouncements(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	core.handleJoin(alice, "standup", "alice", "Alice")

	// The joiner never receives its own peer-connected, only the count.
	events := drain(alice)
	require.Equal(t, []string{OccupantCount}, eventTypes(events))
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 1}, events[0].Data)

	bob := connect(core)
	core.handleJoin(bob, "standup", "bob", "Bob")

	aliceEvents := drain(alice)
	require.Equal(t, []string{PeerConnected, OccupantCount}, eventTypes(aliceEvents))
	assert.Equal(t, PeerPayload{PeerID: "bob", DisplayName: "Bob"}, aliceEvents[0].Data)
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 2}, aliceEvents[1].Data)

	bobEvents := drain(bob)
	require.Equal(t, []string{OccupantCount}, eventTypes(bobEvents))
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 2}, bobEvents[0].Data)
}

func TestJoinRejectsInvalidIdentifiers(t *testing.T) {
	core := newTestCore(Options{})
	cl := connect(core)

	core.handleJoin(cl, "", "alice", "")
	core.handleJoin(cl, "standup", "", "")
	core.handleJoin(cl, "standup", "has spaces", "")

	assert.Empty(t, drain(cl))
	assert.Equal(t, 0, core.rooms.Len())
	assert.Equal(t, "", core.registry.Room(cl.ID))
}

func TestRejoinSameRoomReplacesIdentity(t *testing.T) {
	core := newTestCore(Options{})
	cl := connect(core)

	core.handleJoin(cl, "standup", "alice", "Alice")
	drain(cl)

	core.handleJoin(cl, "standup", "alice-2", "Alice II")

	// No second membership and no peer-connected replay, just a fresh count.
	events := drain(cl)
	require.Equal(t, []string{OccupantCount}, eventTypes(events))
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 1}, events[0].Data)
	assert.Equal(t, 1, core.rooms.Count("standup"))

	peerID, displayName := core.registry.Peer(cl.ID)
	assert.Equal(t, "alice-2", peerID)
	assert.Equal(t, "Alice II", displayName)
}

func TestJoinOtherRoomLeavesCurrentFirst(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	core.handleJoin(bob, "standup", "bob", "")
	drain(alice)
	drain(bob)

	core.handleJoin(bob, "retro", "bob", "")

	// Alice sees the departure before anything else.
	aliceEvents := drain(alice)
	require.Equal(t, []string{PeerDisconnected, OccupantCount}, eventTypes(aliceEvents))
	assert.Equal(t, "standup", aliceEvents[0].RoomID)
	assert.Equal(t, PeerPayload{PeerID: "bob"}, aliceEvents[0].Data)
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 1}, aliceEvents[1].Data)

	bobEvents := drain(bob)
	require.Equal(t, []string{OccupantCount}, eventTypes(bobEvents))
	assert.Equal(t, "retro", bobEvents[0].RoomID)

	assert.Equal(t, 1, core.rooms.Count("standup"))
	assert.Equal(t, 1, core.rooms.Count("retro"))
	assert.Equal(t, "retro", core.registry.Room(bob.ID))
	assert.False(t, core.rooms.Contains("standup", bob.ID))
}

func TestDisconnectAnnouncesLeaveExactlyOnce(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	core.handleJoin(bob, "standup", "bob", "")
	drain(alice)
	drain(bob)

	core.handleDisconnect(bob)
	core.handleDisconnect(bob)

	events := drain(alice)
	require.Equal(t, []string{PeerDisconnected, OccupantCount}, eventTypes(events))
	assert.Equal(t, PeerPayload{PeerID: "bob"}, events[0].Data)
	assert.Equal(t, OccupantCountPayload{TotalOccupants: 1}, events[1].Data)

	assert.Equal(t, 1, core.registry.Len())
	assert.Equal(t, 1, core.rooms.Count("standup"))
}

func TestLastLeaveClosesRoom(t *testing.T) {
	publisher := &recorderPublisher{}
	core := newTestCore(Options{Publisher: publisher})

	cl := connect(core)
	core.handleJoin(cl, "standup", "alice", "")
	core.handleDisconnect(cl)

	assert.Equal(t, 0, core.rooms.Len())
	assert.Equal(t, []string{"standup"}, publisher.roomCreated)
	assert.Equal(t, []string{"alice"}, publisher.peerJoined)
	assert.Equal(t, []string{"alice"}, publisher.peerLeft)
	assert.Equal(t, []string{"standup"}, publisher.roomClosed)

	// A re-created room starts from scratch.
	cl2 := connect(core)
	core.handleJoin(cl2, "standup", "carol", "")
	assert.Equal(t, 1, core.rooms.Count("standup"))
	assert.Equal(t, []string{"standup", "standup"}, publisher.roomCreated)
}

func TestExplicitLeaveFrame(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	core.handleJoin(bob, "standup", "bob", "")
	drain(alice)
	drain(bob)

	core.handleFrame(bob, inboundFrame{Type: LeaveRoom})

	events := drain(alice)
	require.Equal(t, []string{PeerDisconnected, OccupantCount}, eventTypes(events))

	// The connection stays alive and may join again.
	assert.Equal(t, 2, core.registry.Len())
	assert.Equal(t, "", core.registry.Room(bob.ID))

	// Leaving while in no room is a silent no-op.
	core.handleFrame(bob, inboundFrame{Type: LeaveRoom})
	assert.Empty(t, drain(alice))
}

func TestChatEchoedToFullRoom(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "Alice")
	core.handleJoin(bob, "standup", "bob", "Bob")
	drain(alice)
	drain(bob)

	before := time.Now().UTC().Add(-time.Second)
	core.handleChat(alice, "standup", ChatPayload{
		PeerID:  "someone-else", // spoofed; the registry identity wins
		Content: "hello there",
	})

	for _, cl := range []*Client{alice, bob} {
		events := drain(cl)
		require.Equal(t, []string{ReceiveMessage}, eventTypes(events))

		payload, ok := events[0].Data.(MessagePayload)
		require.True(t, ok)
		assert.Equal(t, "hello there", payload.Content)
		assert.Equal(t, "alice", payload.PeerID)
		assert.Equal(t, "Alice", payload.DisplayName)
		assert.NotEmpty(t, payload.ID)

		sentAt, err := time.Parse(time.RFC3339, payload.Timestamp)
		require.NoError(t, err)
		assert.False(t, sentAt.Before(before.Truncate(time.Second)))
	}
}

func TestChatDisplayNameValidated(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "Alice")
	core.handleJoin(bob, "standup", "bob", "Bob")
	drain(alice)
	drain(bob)

	core.handleChat(alice, "standup", ChatPayload{
		DisplayName: strings.Repeat("x", 100), // over the limit; the registered name wins
		Content:     "hello there",
	})

	events := drain(bob)
	require.Equal(t, []string{ReceiveMessage}, eventTypes(events))

	payload, ok := events[0].Data.(MessagePayload)
	require.True(t, ok)
	assert.Equal(t, "Alice", payload.DisplayName)

	// A valid per-message name still overrides the registered one.
	core.handleChat(alice, "standup", ChatPayload{
		DisplayName: "Alice B",
		Content:     "hello again",
	})

	events = drain(bob)
	require.Equal(t, []string{ReceiveMessage}, eventTypes(events))

	payload, ok = events[0].Data.(MessagePayload)
	require.True(t, ok)
	assert.Equal(t, "Alice B", payload.DisplayName)
}

func TestChatFromNonMemberDropped(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	outsider := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	drain(alice)

	// Never joined.
	core.handleChat(outsider, "standup", ChatPayload{Content: "hi"})

	// Member of a different room.
	core.handleJoin(outsider, "retro", "eve", "")
	drain(alice)
	drain(outsider)
	core.handleChat(outsider, "standup", ChatPayload{Content: "hi"})

	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(outsider))
}

func TestChatInvalidContentDropped(t *testing.T) {
	core := newTestCore(Options{})

	cl := connect(core)
	core.handleJoin(cl, "standup", "alice", "")
	drain(cl)

	core.handleChat(cl, "standup", ChatPayload{Content: "   "})
	core.handleChat(cl, "standup", ChatPayload{Content: ""})

	assert.Empty(t, drain(cl))
}

func TestChatProfanityDropped(t *testing.T) {
	filter, err := profanity.NewFilter()
	require.NoError(t, err)

	core := newTestCore(Options{Filter: filter})

	cl := connect(core)
	core.handleJoin(cl, "standup", "alice", "")
	drain(cl)

	core.handleChat(cl, "standup", ChatPayload{Content: "well damn"})
	assert.Empty(t, drain(cl))

	core.handleChat(cl, "standup", ChatPayload{Content: "perfectly fine"})
	assert.Equal(t, []string{ReceiveMessage}, eventTypes(drain(cl)))
}

func TestSignalRoutedToTargetOnly(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	carol := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	core.handleJoin(bob, "standup", "bob", "")
	core.handleJoin(carol, "standup", "carol", "")
	drain(alice)
	drain(bob)
	drain(carol)

	offer := json.RawMessage(`{"kind":"offer","sdp":"v=0"}`)
	core.handleSignal(alice, SignalPayload{TargetPeerID: "bob", Signal: offer})

	bobEvents := drain(bob)
	require.Equal(t, []string{CallSignal}, eventTypes(bobEvents))

	payload, ok := bobEvents[0].Data.(SignalPayload)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.SenderPeerID)
	assert.JSONEq(t, string(offer), string(payload.Signal))

	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(carol))
}

func TestSignalUnknownTargetIsSilent(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	drain(alice)

	core.handleSignal(alice, SignalPayload{TargetPeerID: "ghost", Signal: json.RawMessage(`{}`)})
	core.handleSignal(alice, SignalPayload{TargetPeerID: "", Signal: json.RawMessage(`{}`)})
	core.handleSignal(alice, SignalPayload{TargetPeerID: "alice", Signal: json.RawMessage(`{}`)})

	assert.Empty(t, drain(alice))
}

func TestSignalScopedToSendersRoom(t *testing.T) {
	core := newTestCore(Options{})

	alice := connect(core)
	bob := connect(core)
	core.handleJoin(alice, "standup", "alice", "")
	core.handleJoin(bob, "retro", "bob", "")
	drain(alice)
	drain(bob)

	// Bob exists, but in another room; the signal must not cross over.
	core.handleSignal(alice, SignalPayload{TargetPeerID: "bob", Signal: json.RawMessage(`{}`)})

	assert.Empty(t, drain(bob))
}

func TestHandleFrameDecoding(t *testing.T) {
	core := newTestCore(Options{})
	cl := connect(core)

	core.handleFrame(cl, inboundFrame{
		Type:   JoinRoom,
		RoomID: "standup",
		Data:   json.RawMessage(`{"peerId":"alice","displayName":"Alice"}`),
	})
	require.Equal(t, "standup", core.registry.Room(cl.ID))
	drain(cl)

	// Malformed payloads and unknown event types are skipped without
	// touching state.
	core.handleFrame(cl, inboundFrame{Type: SendMessage, RoomID: "standup", Data: json.RawMessage(`{`)})
	core.handleFrame(cl, inboundFrame{Type: "mystery-event"})

	assert.Empty(t, drain(cl))
	assert.Equal(t, "standup", core.registry.Room(cl.ID))

	core.handleFrame(cl, inboundFrame{
		Type:   SendMessage,
		RoomID: "standup",
		Data:   json.RawMessage(`{"content":"hi all"}`),
	})
	events := drain(cl)
	require.Equal(t, []string{ReceiveMessage}, eventTypes(events))
}

func TestRunLoopServesDispatch(t *testing.T) {
	core := newTestCore(Options{})
	go core.Run()
	defer core.Stop()

	cl := newDetachedClient()
	core.Connect(cl)
	core.Dispatch(cl, inboundFrame{
		Type:   JoinRoom,
		RoomID: "standup",
		Data:   json.RawMessage(`{"peerId":"alice"}`),
	})

	require.Eventually(t, func() bool {
		return core.rooms.Count("standup") == 1
	}, time.Second, 5*time.Millisecond)

	core.Disconnect(cl)

	require.Eventually(t, func() bool {
		return core.registry.Len() == 0 && core.rooms.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
