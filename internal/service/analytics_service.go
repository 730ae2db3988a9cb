package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
)

type Dashboard struct {
	TotalContacts      int     `json:"totalContacts"`
	EmailsSent         int     `json:"emailsSent"`
	AvgOpenRate        float64 `json:"avgOpenRate"`
	ScheduledCampaigns int     `json:"scheduledCampaigns"`
}

type AnalyticsService struct {
	ContactRepo  repository.ContactRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
}

// Dashboard runs the four aggregate queries concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		if d.TotalContacts, err = s.ContactRepo.Count(ctx); err != nil {
			return fmt.Errorf("count contacts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if d.EmailsSent, err = s.LogRepo.CountByStatus(ctx, model.EmailStatusSent); err != nil {
			return fmt.Errorf("count sent emails: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if d.AvgOpenRate, err = s.CampaignRepo.AverageOpenRate(ctx); err != nil {
			return fmt.Errorf("average open rate: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if d.ScheduledCampaigns, err = s.CampaignRepo.CountByStatus(ctx, model.CampaignStatusScheduled); err != nil {
			return fmt.Errorf("count scheduled campaigns: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
