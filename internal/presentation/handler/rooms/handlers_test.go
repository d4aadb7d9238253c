package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevanjebanesan/Lemon/internal/domain"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/ws"
)

type wireEvent struct {
	Type   string         `json:"type"`
	RoomID string         `json:"roomId"`
	Data   map[string]any `json:"data"`
}

func newTestServer(t *testing.T, allowedOrigins []string) (*httptest.Server, *ws.Core) {
	return newTestServerWithAudit(t, allowedOrigins, nil)
}

func newTestServerWithAudit(t *testing.T, allowedOrigins []string, auditLogs domain.PresenceAuditRepository) (*httptest.Server, *ws.Core) {
	t.Helper()

	core := ws.NewCore(logging.NewNop(), ws.Options{})
	go core.Run()
	t.Cleanup(core.Stop)

	handler := NewHandler(core, allowedOrigins, auditLogs, logging.NewNop())

	r := chi.NewRouter()
	r.Get("/api/ws", handler.AttachHandler)
	r.Get("/api/rooms", handler.ListRoomsHandler)
	r.Get("/api/rooms/{roomId}", handler.GetRoomHandler)
	r.Get("/api/rooms/{roomId}/audit", handler.GetRoomAuditHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, core
}

// stubAuditRepository keeps entries in memory, newest first on read, the way
// the mongo-backed repository sorts them.
type stubAuditRepository struct {
	entries []domain.PresenceAuditLog
}

func (s *stubAuditRepository) Log(_ context.Context, entry *domain.PresenceAuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditRepository) GetByRoomID(_ context.Context, roomID string, limit int) ([]domain.PresenceAuditLog, error) {
	out := make([]domain.PresenceAuditLog, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].RoomID == roomID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *stubAuditRepository) EnsureIndexes(_ context.Context) error { return nil }

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var evt wireEvent
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func joinRoom(t *testing.T, conn *websocket.Conn, roomID, peerID string) {
	t.Helper()

	sendFrame(t, conn, map[string]any{
		"type":   "join-room",
		"roomId": roomID,
		"data":   map[string]any{"peerId": peerID},
	})
}

func TestWebSocketJoinFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	alice := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")

	evt := readEvent(t, alice)
	assert.Equal(t, "occupant-count", evt.Type)
	assert.Equal(t, "standup", evt.RoomID)
	assert.Equal(t, float64(1), evt.Data["totalOccupants"])

	bob := dial(t, srv)
	joinRoom(t, bob, "standup", "bob")

	evt = readEvent(t, alice)
	assert.Equal(t, "peer-connected", evt.Type)
	assert.Equal(t, "bob", evt.Data["peerId"])

	evt = readEvent(t, alice)
	assert.Equal(t, "occupant-count", evt.Type)
	assert.Equal(t, float64(2), evt.Data["totalOccupants"])

	evt = readEvent(t, bob)
	assert.Equal(t, "occupant-count", evt.Type)
	assert.Equal(t, float64(2), evt.Data["totalOccupants"])
}

func TestWebSocketChatEcho(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	alice := dial(t, srv)
	bob := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")
	readEvent(t, alice)
	joinRoom(t, bob, "standup", "bob")
	readEvent(t, alice)
	readEvent(t, alice)
	readEvent(t, bob)

	sendFrame(t, alice, map[string]any{
		"type":   "send-message",
		"roomId": "standup",
		"data":   map[string]any{"content": "hello everyone"},
	})

	for _, conn := range []*websocket.Conn{alice, bob} {
		evt := readEvent(t, conn)
		assert.Equal(t, "receive-message", evt.Type)
		assert.Equal(t, "hello everyone", evt.Data["content"])
		assert.Equal(t, "alice", evt.Data["peerId"])
		assert.NotEmpty(t, evt.Data["timestamp"])
	}
}

func TestWebSocketCallSignalRouting(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	alice := dial(t, srv)
	bob := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")
	readEvent(t, alice)
	joinRoom(t, bob, "standup", "bob")
	readEvent(t, alice)
	readEvent(t, alice)
	readEvent(t, bob)

	sendFrame(t, alice, map[string]any{
		"type": "call-signal",
		"data": map[string]any{
			"targetPeerId": "bob",
			"signal":       map[string]any{"kind": "offer", "sdp": "v=0"},
		},
	})

	evt := readEvent(t, bob)
	assert.Equal(t, "call-signal", evt.Type)
	assert.Equal(t, "alice", evt.Data["senderPeerId"])

	signal, ok := evt.Data["signal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "offer", signal["kind"])
}

func TestWebSocketDisconnectAnnounced(t *testing.T) {
	srv, core := newTestServer(t, nil)

	alice := dial(t, srv)
	bob := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")
	readEvent(t, alice)
	joinRoom(t, bob, "standup", "bob")
	readEvent(t, alice)
	readEvent(t, alice)
	readEvent(t, bob)

	require.NoError(t, bob.Close())

	evt := readEvent(t, alice)
	assert.Equal(t, "peer-disconnected", evt.Type)
	assert.Equal(t, "bob", evt.Data["peerId"])

	evt = readEvent(t, alice)
	assert.Equal(t, "occupant-count", evt.Type)
	assert.Equal(t, float64(1), evt.Data["totalOccupants"])

	require.Eventually(t, func() bool {
		return core.Registry().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListRoomsHandler(t *testing.T) {
	srv, core := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var empty roomListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	assert.Equal(t, 0, empty.Total)

	alice := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")
	readEvent(t, alice)

	require.Eventually(t, func() bool {
		return core.Rooms().Count("standup") == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list roomListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "standup", list.Rooms[0].ID)
	assert.Equal(t, 1, list.Rooms[0].TotalOccupants)
	assert.Equal(t, []string{"alice"}, list.Rooms[0].Occupants)
}

func TestGetRoomHandler(t *testing.T) {
	srv, core := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/rooms/nowhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	alice := dial(t, srv)
	joinRoom(t, alice, "standup", "alice")
	readEvent(t, alice)

	require.Eventually(t, func() bool {
		return core.Rooms().Count("standup") == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(srv.URL + "/api/rooms/standup")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var room roomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	assert.Equal(t, "standup", room.ID)
	assert.Equal(t, 1, room.TotalOccupants)
	assert.Equal(t, []string{"alice"}, room.Occupants)
}

func TestGetRoomAuditHandler(t *testing.T) {
	repo := &stubAuditRepository{}
	require.NoError(t, repo.Log(context.Background(), domain.NewRoomCreatedLog("standup")))
	require.NoError(t, repo.Log(context.Background(), domain.NewPeerJoinedLog("standup", "alice", 1)))
	require.NoError(t, repo.Log(context.Background(), domain.NewPeerJoinedLog("other", "carol", 1)))

	srv, _ := newTestServerWithAudit(t, nil, repo)

	resp, err := http.Get(srv.URL + "/api/rooms/standup/audit")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trail auditTrailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trail))
	assert.Equal(t, "standup", trail.RoomID)
	require.Equal(t, 2, trail.Total)

	// Newest first, and the other room's entries never leak in.
	assert.Equal(t, string(domain.EventPeerJoined), trail.Entries[0].EventType)
	assert.Equal(t, "alice", trail.Entries[0].Metadata["peer_id"])
	assert.Equal(t, string(domain.EventRoomCreated), trail.Entries[1].EventType)
}

func TestGetRoomAuditHandlerLimit(t *testing.T) {
	repo := &stubAuditRepository{}
	require.NoError(t, repo.Log(context.Background(), domain.NewRoomCreatedLog("standup")))
	require.NoError(t, repo.Log(context.Background(), domain.NewPeerJoinedLog("standup", "alice", 1)))
	require.NoError(t, repo.Log(context.Background(), domain.NewPeerJoinedLog("standup", "bob", 2)))

	srv, _ := newTestServerWithAudit(t, nil, repo)

	resp, err := http.Get(srv.URL + "/api/rooms/standup/audit?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trail auditTrailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trail))
	require.Equal(t, 1, trail.Total)
	assert.Equal(t, "bob", trail.Entries[0].Metadata["peer_id"])

	resp, err = http.Get(srv.URL + "/api/rooms/standup/audit?limit=zero")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRoomAuditHandlerDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/rooms/standup/audit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpgradeRejectsDisallowedOrigin(t *testing.T) {
	srv, _ := newTestServer(t, []string{"https://meet.example.com"})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	header := http.Header{"Origin": []string{"https://evil.example.net"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://meet.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	conn.Close()
}
