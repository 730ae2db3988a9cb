// internal/model/campaign.go
package model

import "time"

const (
	CampaignStatusDraft      = "draft"
	CampaignStatusScheduled  = "scheduled"
	CampaignStatusGenerating = "generating"
	CampaignStatusSent       = "sent"
	CampaignStatusCompleted  = "completed"
	CampaignStatusFailed     = "failed"
)

type Campaign struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Prompt       string     `db:"prompt" json:"prompt"`
	Status       string     `db:"status" json:"status"`
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduledFor,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// CampaignStats is filled in by the stats worker, never by the send loop.
type CampaignStats struct {
	ID           int       `db:"id" json:"id"`
	CampaignID   int       `db:"campaign_id" json:"campaignId"`
	TotalSent    int       `db:"total_sent" json:"totalSent"`
	TotalOpened  int       `db:"total_opened" json:"totalOpened"`
	TotalClicked int       `db:"total_clicked" json:"totalClicked"`
	TotalFailed  int       `db:"total_failed" json:"totalFailed"`
	OpenRate     float64   `db:"open_rate" json:"openRate"`
	ClickRate    float64   `db:"click_rate" json:"clickRate"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CampaignSummary is one row of the campaign listing.
type CampaignSummary struct {
	Campaign
	Stats         *CampaignStats `json:"stats"`
	EmailLogCount int            `json:"emailLogCount"`
}

// ValidCampaignStatus reports whether s is a known campaign status.
func ValidCampaignStatus(s string) bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusGenerating,
		CampaignStatusSent, CampaignStatusCompleted, CampaignStatusFailed:
		return true
	}
	return false
}
