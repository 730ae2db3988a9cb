package handler

import (
	"context"
	"net/http"

	"github.com/unclebandit/emailcraft-backend/internal/service"
)

type AnalyticsHandler struct {
	Service *service.AnalyticsService
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		WriteServiceError(w, err, "Failed to load dashboard")
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports database reachability and which integrations are configured.
// It never echoes credentials.
type HealthHandler struct {
	DB           Pinger
	Integrations map[string]bool
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	WriteJSON(w, code, map[string]any{
		"status":       status,
		"integrations": h.Integrations,
	})
}
