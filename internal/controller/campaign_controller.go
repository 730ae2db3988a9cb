// internal/controller/campaign_controller.go
package controller

import (
	"log"
	"net/http"
	"strconv"

	"github.com/unclebandit/emailcraft-backend/internal/handler"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CampaignInput
	if !handler.DecodeAndValidate(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to create campaign")
		return
	}

	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters; the service applies defaults and limits
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to fetch campaigns")
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // already contains total_count, total_pages, page, page_size
	})
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid campaign ID")
		return
	}

	var body service.CampaignPatch
	if !handler.DecodeAndValidate(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, body)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to update campaign")
		return
	}

	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid campaign ID")
		return
	}

	if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
		handler.WriteServiceError(w, err, "Failed to delete campaign")
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]string{"message": "Campaign deleted successfully"})
}

func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid campaign ID")
		return
	}

	log.Println("📥 Send requested for campaign ID:", id)

	result, err := c.CampaignService.SendCampaign(r.Context(), id)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to send campaign")
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Campaign sent successfully",
		"results": result,
	})
}
