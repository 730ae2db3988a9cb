// internal/service/campaign_service.go
package service

import (
	"context"
	"log"
	"strings"
	"time"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/lock"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Personalizer produces one email per contact, in contact order.
type Personalizer interface {
	GenerateMany(ctx context.Context, contacts []model.Contact, prompt string) []personalize.Email
}

// Mailer reports whether the provider accepted the message.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) bool
}

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
	Personalizer Personalizer
	Mailer       Mailer

	// Optional. A nil Queue publishes nothing; a nil Guard lets concurrent sends through.
	Queue queue.Queue
	Guard lock.Guard
	Now   func() time.Time
}

// CampaignInput is the body of a create request.
type CampaignInput struct {
	Name         string     `json:"name" validate:"required,max=255"`
	Prompt       string     `json:"prompt" validate:"required"`
	ScheduledFor *time.Time `json:"scheduledFor"`
	Status       *string    `json:"status" validate:"omitempty,oneof=draft scheduled generating sent completed failed"`
}

// CampaignPatch holds the fields a partial update may change.
type CampaignPatch struct {
	Name         *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Prompt       *string    `json:"prompt" validate:"omitempty,min=1"`
	Status       *string    `json:"status" validate:"omitempty,oneof=draft scheduled generating sent completed failed"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}

type CampaignDetails struct {
	model.Campaign
	Stats     *model.CampaignStats `json:"stats"`
	EmailLogs []model.EmailLog     `json:"emailLogs"`
	Counts    map[string]int       `json:"counts"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CampaignService) guard() lock.Guard {
	if s.Guard == nil {
		return lock.NopGuard{}
	}
	return s.Guard
}

// CreateCampaign starts as draft, or scheduled when a send time is given.
// An explicit status wins over both.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Prompt) == "" {
		return nil, appErrors.NewValidation("name and prompt are required")
	}

	c := &model.Campaign{
		Name:         in.Name,
		Prompt:       in.Prompt,
		Status:       model.CampaignStatusDraft,
		ScheduledFor: in.ScheduledFor,
	}
	if in.ScheduledFor != nil {
		c.Status = model.CampaignStatusScheduled
	}
	if in.Status != nil {
		if !model.ValidCampaignStatus(*in.Status) {
			return nil, appErrors.NewValidation("invalid status %q", *in.Status)
		}
		c.Status = *in.Status
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("Campaign created: id=%d status=%s", c.ID, c.Status)
	return c, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, patch CampaignPatch) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Prompt != nil {
		c.Prompt = *patch.Prompt
	}
	if patch.ScheduledFor != nil {
		c.ScheduledFor = patch.ScheduledFor
	}
	if patch.Status != nil {
		if !model.ValidCampaignStatus(*patch.Status) {
			return nil, appErrors.NewValidation("invalid status %q", *patch.Status)
		}
		c.Status = *patch.Status
	}

	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCampaign removes the campaign together with its logs and stats.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	return s.CampaignRepo.Delete(ctx, id)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]*model.CampaignSummary, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if status != "" && !model.ValidCampaignStatus(status) {
		return nil, nil, appErrors.NewValidation("invalid status %q", status)
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}
	if campaigns == nil {
		campaigns = []*model.CampaignSummary{}
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// ListScheduled returns scheduled campaigns, soonest first.
func (s *CampaignService) ListScheduled(ctx context.Context) ([]*model.CampaignSummary, error) {
	campaigns, err := s.CampaignRepo.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*model.CampaignSummary{}
	}
	return campaigns, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetCampaignStats(ctx, campaignID)
	if err != nil {
		log.Println("Failed to fetch campaign stats:", err)
		return nil, err
	}

	logs, err := s.LogRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		log.Println("Failed to fetch email logs:", err)
		return nil, err
	}
	if logs == nil {
		logs = []model.EmailLog{}
	}

	counts, err := s.LogRepo.StatusCounts(ctx, campaignID)
	if err != nil {
		log.Println("Failed to count email logs:", err)
		return nil, err
	}

	return &CampaignDetails{
		Campaign:  *campaign,
		Stats:     stats,
		EmailLogs: logs,
		Counts:    counts,
	}, nil
}
