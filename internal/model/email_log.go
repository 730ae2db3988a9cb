// internal/model/email_log.go
package model

import "time"

const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// EmailLog is the audit row for one delivery attempt to one contact.
type EmailLog struct {
	ID         int        `db:"id" json:"id"`
	ContactID  int        `db:"contact_id" json:"contactId"`
	CampaignID int        `db:"campaign_id" json:"campaignId"`
	Subject    string     `db:"subject" json:"subject"`
	Content    string     `db:"content" json:"content"`
	Status     string     `db:"status" json:"status"` // pending, sent, failed
	SentAt     *time.Time `db:"sent_at" json:"sentAt"`
	OpenedAt   *time.Time `db:"opened_at" json:"openedAt"`
	ClickedAt  *time.Time `db:"clicked_at" json:"clickedAt"`
	Error      *string    `db:"error" json:"error"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewPendingEmailLog builds the row written before a delivery attempt.
func NewPendingEmailLog(campaignID, contactID int, subject, content string) *EmailLog {
	return &EmailLog{
		CampaignID: campaignID,
		ContactID:  contactID,
		Subject:    subject,
		Content:    content,
		Status:     EmailStatusPending,
	}
}

func (l *EmailLog) MarkSent(at time.Time) {
	l.Status = EmailStatusSent
	l.SentAt = &at
	l.Error = nil
}

func (l *EmailLog) MarkFailed(msg string) {
	l.Status = EmailStatusFailed
	l.SentAt = nil
	l.Error = &msg
}

// Terminal reports whether the delivery attempt has finished.
func (l *EmailLog) Terminal() bool {
	return l.Status == EmailStatusSent || l.Status == EmailStatusFailed
}
