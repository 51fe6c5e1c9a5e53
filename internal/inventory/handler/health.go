package handler

import (
	"net/http"

	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/pkg/httputil"
)

// Liveness reports that the process is serving requests
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, httputil.Payload{
		"status":  service.StatusHealthy,
		"service": ServiceName,
	})
}

// InventoryHealth reports store reachability, stats and alert counts.
// An unreachable store answers 503 so orchestrators can act on it.
func (h *Handler) InventoryHealth(w http.ResponseWriter, r *http.Request) {
	health := h.service.HealthCheck(r.Context())

	status := http.StatusOK
	if health.Status == service.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	payload := httputil.Payload{
		"service": ServiceName,
		"health":  health,
	}
	if h.registry != nil {
		payload["streams"] = h.registry.Count()
	}
	httputil.JSON(w, status, payload)
}
