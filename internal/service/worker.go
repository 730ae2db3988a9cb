package service

import (
	"context"
	"log"
	"time"

	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
)

// StatsRefresher is the part of the campaign store the worker needs
type StatsRefresher interface {
	RefreshStats(ctx context.Context, campaignID int) (*model.CampaignStats, error)
}

// Worker recomputes campaign_stats when a campaign finishes sending
type Worker struct {
	Stats   StatsRefresher
	Timeout time.Duration
}

// Constructor
func NewWorker(stats StatsRefresher) *Worker {
	return &Worker{
		Stats:   stats,
		Timeout: 30 * time.Second,
	}
}

// Handle is a queue.Handler. A returned error makes the queue retry.
func (w *Worker) Handle(evt queue.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	stats, err := w.Stats.RefreshStats(ctx, evt.CampaignID)
	if err != nil {
		log.Printf("Failed to refresh stats for campaign %d: %v", evt.CampaignID, err)
		return err
	}
	log.Printf("Stats refreshed for campaign %d: sent=%d failed=%d openRate=%.2f",
		evt.CampaignID, stats.TotalSent, stats.TotalFailed, stats.OpenRate)
	return nil
}

// Start subscribes the worker to campaign completion events.
func (w *Worker) Start(q queue.Queue) error {
	return q.Subscribe(queue.TopicCampaignCompleted, w.Handle)
}
