package rooms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bevanjebanesan/Lemon/internal/domain"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/json"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/ws"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type Handler struct {
	core      *ws.Core
	upgrader  websocket.Upgrader
	auditLogs domain.PresenceAuditRepository // nil when the audit trail is disabled
	logger    logging.Logger
}

func NewHandler(core *ws.Core, allowedOrigins []string, auditLogs domain.PresenceAuditRepository, logger logging.Logger) *Handler {
	policy := newOriginPolicy(allowedOrigins)

	return &Handler{
		core:      core,
		auditLogs: auditLogs,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// AttachHandler godoc
// @Summary      Open the signaling WebSocket
// @Description  Upgrades the connection and attaches it to the signaling core. All room, chat and call-signal traffic flows over this socket as JSON events.
// @Tags         rooms
// @Success      101 {object} map[string]interface{} "Switching Protocols - WebSocket connection established"
// @Failure      403 {object} map[string]interface{} "Forbidden - origin not allowed"
// @Router       /ws [get]
func (h *Handler) AttachHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn(logging.Signaling, logging.Join, "websocket upgrade failed", map[logging.ExtraKey]any{
			"remote_addr": r.RemoteAddr,
			"error":       err.Error(),
		})
		return
	}

	client := ws.NewClient(conn)
	h.core.Connect(client)

	go client.WritePump()
	go client.ReadPump(h.core)

	h.logger.Info(logging.Signaling, logging.Join, "connection attached", map[logging.ExtraKey]any{
		logging.ConnectionID: client.ID,
		"remote_addr":        r.RemoteAddr,
	})
}

// ListRoomsHandler godoc
// @Summary      List live rooms
// @Description  Returns every room that currently has at least one occupant, with occupant identifiers in join order
// @Tags         rooms
// @Produce      json
// @Success      200 {object} roomListResponse "Live rooms"
// @Router       /rooms [get]
func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := h.core.Rooms().Snapshot()

	resp := roomListResponse{
		Rooms: make([]roomResponse, 0, len(snapshot)),
		Total: len(snapshot),
	}

	for _, info := range snapshot {
		resp.Rooms = append(resp.Rooms, roomResponse{
			ID:             info.ID,
			TotalOccupants: len(info.Occupants),
			Occupants:      h.resolvePeers(info.Occupants),
		})
	}

	json.Write(w, http.StatusOK, resp)
}

// resolvePeers maps internal connection ids to the peer identifiers clients
// actually know each other by.
func (h *Handler) resolvePeers(connIDs []string) []string {
	peers := make([]string, 0, len(connIDs))
	for _, connID := range connIDs {
		if peerID, _ := h.core.Registry().Peer(connID); peerID != "" {
			peers = append(peers, peerID)
		}
	}
	return peers
}

// GetRoomHandler godoc
// @Summary      Get one room's occupancy
// @Description  Returns the occupant list for a single room. Rooms disappear the moment their last occupant leaves, so an empty room is always a 404.
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      200 {object} roomResponse "Room occupancy"
// @Failure      404 {object} map[string]interface{} "Room not found"
// @Router       /rooms/{roomId} [get]
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	occupants := h.core.Rooms().Occupants(roomID)
	if len(occupants) == 0 {
		json.WriteError(w, http.StatusNotFound, errors.New("room not found"), "Room not found")
		return
	}

	json.Write(w, http.StatusOK, roomResponse{
		ID:             roomID,
		TotalOccupants: len(occupants),
		Occupants:      h.resolvePeers(occupants),
	})
}

// GetRoomAuditHandler godoc
// @Summary      Get a room's presence audit trail
// @Description  Returns recent presence transitions (room lifecycle, joins and leaves) for a room, newest first. Only available when the audit trail is enabled.
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        limit  query int false "Maximum number of entries (default 50, max 200)"
// @Success      200 {object} auditTrailResponse "Audit entries"
// @Failure      404 {object} map[string]interface{} "Audit trail not enabled"
// @Router       /rooms/{roomId}/audit [get]
func (h *Handler) GetRoomAuditHandler(w http.ResponseWriter, r *http.Request) {
	if h.auditLogs == nil {
		json.WriteError(w, http.StatusNotFound, errors.New("audit trail is not enabled"), "Audit trail is not enabled")
		return
	}

	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			json.WriteValidationError(w, errors.New("limit must be a positive integer"))
			return
		}
		if parsed > maxAuditLimit {
			parsed = maxAuditLimit
		}
		limit = parsed
	}

	logs, err := h.auditLogs.GetByRoomID(r.Context(), roomID, limit)
	if err != nil {
		h.logger.Error(logging.MongoDB, logging.ExternalService, "failed to load audit trail", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w, err)
		return
	}

	entries := make([]auditEntryResponse, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, auditEntryResponse{
			ID:        entry.ID,
			EventType: string(entry.EventType),
			Timestamp: entry.Timestamp,
			Metadata:  entry.Metadata,
		})
	}

	json.Write(w, http.StatusOK, auditTrailResponse{
		RoomID:  roomID,
		Entries: entries,
		Total:   len(entries),
	})
}
