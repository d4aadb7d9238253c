package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bevanjebanesan/Lemon/internal/infrastructure/json"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/ws"
)

var (
	startTime       = time.Now()
	healthy   int32 = 1 // 1: healthy, 0 = unhealthy
)

type Handler struct {
	core *ws.Core
}

func NewHandler(core *ws.Core) *Handler {
	return &Handler{core: core}
}

// SetUnhealthy flips the health flag; used during shutdown so load
// balancers stop routing new connections here.
func SetUnhealthy() {
	atomic.StoreInt32(&healthy, 0)
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the service, including uptime, live connection count and live room count
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(startTime).Round(time.Second).String(),
		Connections: h.core.Registry().Len(),
		Rooms:       h.core.Rooms().Len(),
	}

	if atomic.LoadInt32(&healthy) == 0 {
		resp.Status = "unhealthy"
		json.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	json.Write(w, http.StatusOK, resp)
}
