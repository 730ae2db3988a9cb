package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

// DueCampaigns lists scheduled campaigns whose send time has passed.
type DueCampaigns interface {
	ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID int, status string) error
}

// Sender is satisfied by service.CampaignService.
type Sender interface {
	SendCampaign(ctx context.Context, campaignID int) (*service.SendResult, error)
}

type Scheduler struct {
	cron      *cron.Cron
	campaigns DueCampaigns
	sender    Sender
	now       func() time.Time
}

func NewScheduler(campaigns DueCampaigns, sender Sender) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		campaigns: campaigns,
		sender:    sender,
		now:       time.Now,
	}
}

// Start registers the due-campaign job on spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunDue(context.Background()) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Printf("Scheduler started (%s)", spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunDue sends every due campaign once and returns how many were sent.
// A due campaign with nobody to send to is marked failed so it is not picked up again.
func (s *Scheduler) RunDue(ctx context.Context) int {
	campaigns, err := s.campaigns.ListDue(ctx, s.now())
	if err != nil {
		log.Printf("⚠️ Failed to list due campaigns: %v", err)
		return 0
	}

	sent := 0
	for _, c := range campaigns {
		result, err := s.sender.SendCampaign(ctx, c.ID)
		switch {
		case err == nil:
			sent++
			log.Printf("Scheduled campaign %d sent: %d/%d delivered", c.ID, result.Successful, result.Total)
		case appErrors.IsValidation(err):
			log.Printf("⚠️ Scheduled campaign %d cannot be sent: %v", c.ID, err)
			if err := s.campaigns.UpdateStatus(ctx, c.ID, model.CampaignStatusFailed); err != nil {
				log.Printf("⚠️ Failed to mark campaign %d failed: %v", c.ID, err)
			}
		case appErrors.IsConflict(err):
			log.Printf("Scheduled campaign %d is already being sent", c.ID)
		default:
			log.Printf("⚠️ Scheduled campaign %d failed: %v", c.ID, err)
		}
	}
	return sent
}
