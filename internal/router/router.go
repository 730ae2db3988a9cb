package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/emailcraft-backend/internal/controller"
	"github.com/unclebandit/emailcraft-backend/internal/handler"
	"github.com/unclebandit/emailcraft-backend/internal/middleware"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

type Deps struct {
	Campaigns *service.CampaignService
	Contacts  *service.ContactService
	Analytics *service.AnalyticsService
	Health    *handler.HealthHandler
}

// New wires every route onto a chi router.
func New(d Deps) http.Handler {
	campaignController := &controller.CampaignController{CampaignService: d.Campaigns}
	campaignHandler := &handler.CampaignHandler{Service: d.Campaigns}
	contactController := &controller.ContactController{ContactService: d.Contacts}
	analyticsHandler := &handler.AnalyticsHandler{Service: d.Analytics}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	// Campaign routes
	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", campaignController.ListCampaigns)
		r.Post("/", campaignController.CreateCampaign)
		r.Get("/{id}", campaignHandler.GetCampaignHandlerWithStats)
		r.Patch("/{id}", campaignController.UpdateCampaign)
		r.Delete("/{id}", campaignController.DeleteCampaign)
		r.Post("/{id}/send", campaignController.SendCampaign)
	})
	r.Get("/scheduled", campaignHandler.ListScheduledHandler)

	// Contact routes
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", contactController.ListContacts)
		r.Post("/", contactController.CreateContact)
		r.Post("/upload", contactController.UploadContacts)
		r.Get("/export", contactController.ExportContacts)
		r.Get("/{id}", contactController.GetContact)
		r.Patch("/{id}", contactController.UpdateContact)
		r.Delete("/{id}", contactController.DeleteContact)
	})

	r.Get("/analytics/dashboard", analyticsHandler.Dashboard)

	health := d.Health
	if health == nil {
		health = &handler.HealthHandler{}
	}
	r.Get("/healthz", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
