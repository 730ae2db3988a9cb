package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/emailcraft-backend/internal/controller"
	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/repository/repotest"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

type stubPersonalizer struct{}

func (stubPersonalizer) GenerateMany(ctx context.Context, contacts []model.Contact, prompt string) []personalize.Email {
	out := make([]personalize.Email, len(contacts))
	for i, c := range contacts {
		out[i] = personalize.Email{Subject: "Hi " + c.FirstName, Content: prompt}
	}
	return out
}

type stubMailer struct{ failTo string }

func (m stubMailer) Send(ctx context.Context, to, subject, text, html string) bool {
	return to != m.failTo
}

type busyGuard struct{}

func (busyGuard) Acquire(ctx context.Context, id int) (func(), error) {
	return nil, appErrors.NewConflict("campaign %d is already being sent", id)
}

func newController(contacts ...model.Contact) (*controller.CampaignController, *repotest.CampaignRepo) {
	campaigns := repotest.NewCampaignRepo(&model.Campaign{ID: 1, Name: "Sale", Prompt: "announce sale", Status: model.CampaignStatusDraft})
	svc := &service.CampaignService{
		CampaignRepo: campaigns,
		ContactRepo:  &repotest.ContactRepo{Contacts: contacts},
		LogRepo:      &repotest.LogRepo{},
		Personalizer: stubPersonalizer{},
		Mailer:       stubMailer{failTo: "bob@example.com"},
	}
	return &controller.CampaignController{CampaignService: svc}, campaigns
}

// withID attaches a chi route context carrying {id}
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestSendCampaignHandler(t *testing.T) {
	c, campaigns := newController(
		model.Contact{ID: 1, FirstName: "Alice", Email: "alice@example.com"},
		model.Contact{ID: 2, FirstName: "Bob", Email: "bob@example.com"},
	)

	rr := httptest.NewRecorder()
	c.SendCampaign(rr, withID(httptest.NewRequest(http.MethodPost, "/campaigns/1/send", nil), "1"))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Campaign sent successfully", body["message"])
	assert.Equal(t, map[string]any{"total": 2.0, "successful": 1.0, "failed": 1.0}, body["results"])
	assert.Equal(t, model.CampaignStatusCompleted, campaigns.Campaigns[1].Status)
}

func TestSendCampaignHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		contacts []model.Contact
		setup    func(*controller.CampaignController)
		status   int
		message  string
	}{
		{name: "non numeric id", id: "abc", status: http.StatusBadRequest, message: "Invalid campaign ID"},
		{name: "no contacts", id: "1", status: http.StatusBadRequest, message: "No contacts found"},
		{name: "unknown campaign", id: "99", contacts: []model.Contact{{ID: 1, Email: "a@x.com"}}, status: http.StatusNotFound, message: "Campaign not found"},
		{
			name:     "send in progress",
			id:       "1",
			contacts: []model.Contact{{ID: 1, Email: "a@x.com"}},
			setup:    func(c *controller.CampaignController) { c.CampaignService.Guard = busyGuard{} },
			status:   http.StatusConflict,
			message:  "campaign 1 is already being sent",
		},
		{
			name:     "store failure",
			id:       "1",
			contacts: []model.Contact{{ID: 1, Email: "a@x.com"}},
			setup: func(c *controller.CampaignController) {
				c.CampaignService.ContactRepo = &repotest.ContactRepo{ListErr: errors.New("connection refused")}
			},
			status:  http.StatusInternalServerError,
			message: "Failed to send campaign",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(tt.contacts...)
			if tt.setup != nil {
				tt.setup(c)
			}
			rr := httptest.NewRecorder()
			c.SendCampaign(rr, withID(httptest.NewRequest(http.MethodPost, "/campaigns/"+tt.id+"/send", nil), tt.id))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, decode(t, rr)["error"])
		})
	}
}

func TestCreateCampaignHandler(t *testing.T) {
	c, _ := newController()

	payload, _ := json.Marshal(map[string]any{"name": "Spring", "prompt": "new arrivals", "scheduledFor": "2030-01-01T09:00:00Z"})
	rr := httptest.NewRecorder()
	c.CreateCampaign(rr, httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Spring", body["name"])
	assert.Equal(t, model.CampaignStatusScheduled, body["status"])
}

func TestCreateCampaignHandlerValidation(t *testing.T) {
	c, _ := newController()

	rr := httptest.NewRecorder()
	c.CreateCampaign(rr, httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewBufferString(`{"name":"x","status":"archived"}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Contains(t, body["details"], "prompt is required")
	assert.Contains(t, body["details"], "status must be one of: draft scheduled generating sent completed failed")

	rr = httptest.NewRecorder()
	c.CreateCampaign(rr, httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListCampaignsHandler(t *testing.T) {
	c, _ := newController()

	rr := httptest.NewRecorder()
	c.ListCampaigns(rr, httptest.NewRequest(http.MethodGet, "/campaigns?page=1&page_size=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, map[string]any{"page": 1.0, "page_size": 5.0, "total_count": 1.0, "total_pages": 1.0}, body["pagination"])
}

func TestUpdateAndDeleteCampaignHandler(t *testing.T) {
	c, campaigns := newController()

	rr := httptest.NewRecorder()
	c.UpdateCampaign(rr, withID(httptest.NewRequest(http.MethodPatch, "/campaigns/1", bytes.NewBufferString(`{"name":"Renamed"}`)), "1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Renamed", campaigns.Campaigns[1].Name)

	rr = httptest.NewRecorder()
	c.DeleteCampaign(rr, withID(httptest.NewRequest(http.MethodDelete, "/campaigns/1", nil), "1"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	c.DeleteCampaign(rr, withID(httptest.NewRequest(http.MethodDelete, "/campaigns/1", nil), "1"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
