// internal/handler/campaign_handler.go
package handler

import (
	"log"
	"net/http"

	"github.com/unclebandit/emailcraft-backend/internal/service"
)

// CampaignHandler serves the read-only campaign views
type CampaignHandler struct {
	Service *service.CampaignService
}

// GetCampaignHandlerWithStats returns a campaign with its stats, logs and per-status counts
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid campaign ID")
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "Failed to fetch campaign")
		return
	}

	log.Printf("✅ Returning campaign %d with %d email logs", id, len(details.EmailLogs))
	WriteJSON(w, http.StatusOK, details)
}

// ListScheduledHandler returns scheduled campaigns, soonest first
func (h *CampaignHandler) ListScheduledHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListScheduled(r.Context())
	if err != nil {
		WriteServiceError(w, err, "Failed to fetch scheduled campaigns")
		return
	}
	WriteJSON(w, http.StatusOK, campaigns)
}
