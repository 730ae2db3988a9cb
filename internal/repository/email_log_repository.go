package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/emailcraft-backend/internal/model"
)

type EmailLogRepositoryInterface interface {
	Create(ctx context.Context, l *model.EmailLog) error
	Update(ctx context.Context, l *model.EmailLog) error
	ListByCampaign(ctx context.Context, campaignID int) ([]model.EmailLog, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	StatusCounts(ctx context.Context, campaignID int) (map[string]int, error)
}

type EmailLogRepository struct {
	DB *sql.DB
}

const emailLogColumns = `id, contact_id, campaign_id, subject, content, status, sent_at,
        opened_at, clicked_at, error, created_at, updated_at`

// Create inserts a new email log and fills in its ID
func (r *EmailLogRepository) Create(ctx context.Context, l *model.EmailLog) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
        INSERT INTO email_logs
        (contact_id, campaign_id, subject, content, status, sent_at, error, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		l.ContactID,
		l.CampaignID,
		l.Subject,
		l.Content,
		l.Status,
		l.SentAt,
		l.Error,
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(&l.ID)
}

// Update persists the delivery outcome of an existing log
func (r *EmailLogRepository) Update(ctx context.Context, l *model.EmailLog) error {
	l.UpdatedAt = time.Now()
	query := `
        UPDATE email_logs
        SET status=$1, sent_at=$2, error=$3, updated_at=$4
        WHERE id=$5
    `
	_, err := r.DB.ExecContext(ctx, query, l.Status, l.SentAt, l.Error, l.UpdatedAt, l.ID)
	return err
}

func (r *EmailLogRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + ` FROM email_logs WHERE campaign_id=$1 ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.EmailLog{}
	for rows.Next() {
		var l model.EmailLog
		if err := rows.Scan(
			&l.ID,
			&l.ContactID,
			&l.CampaignID,
			&l.Subject,
			&l.Content,
			&l.Status,
			&l.SentAt,
			&l.OpenedAt,
			&l.ClickedAt,
			&l.Error,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *EmailLogRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_logs WHERE status=$1`, status).Scan(&total)
	return total, err
}

// StatusCounts returns per-status counts for a campaign plus a "total" key.
func (r *EmailLogRepository) StatusCounts(ctx context.Context, campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_logs WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":                  0,
		model.EmailStatusPending: 0,
		model.EmailStatusSent:    0,
		model.EmailStatusFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)
