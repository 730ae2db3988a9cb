package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	UpdateStatus(ctx context.Context, campaignID int, status string) error
	Delete(ctx context.Context, id int) error
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.CampaignSummary, int, error)
	ListScheduled(ctx context.Context) ([]*model.CampaignSummary, error)
	ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error)
	CountByStatus(ctx context.Context, status string) (int, error)

	// Stats
	GetCampaignStats(ctx context.Context, campaignID int) (*model.CampaignStats, error)
	RefreshStats(ctx context.Context, campaignID int) (*model.CampaignStats, error)
	AverageOpenRate(ctx context.Context) (float64, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, prompt, status, scheduled_for, created_at, updated_at`

func scanCampaign(row rowScanner, c *model.Campaign) error {
	return row.Scan(&c.ID, &c.Name, &c.Prompt, &c.Status, &c.ScheduledFor, &c.CreatedAt, &c.UpdatedAt)
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
        INSERT INTO campaigns (name, prompt, status, scheduled_for, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, c.Name, c.Prompt, c.Status, c.ScheduledFor, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE campaigns
        SET name=$1, prompt=$2, status=$3, scheduled_for=$4, updated_at=$5
        WHERE id=$6
    `
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.Prompt, c.Status, c.ScheduledFor, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, appErrors.NewCampaignNotFound(c.ID))
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID)
	if err != nil {
		return err
	}
	return expectOneRow(res, appErrors.NewCampaignNotFound(campaignID))
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	var c model.Campaign
	if err := scanCampaign(r.DB.QueryRowContext(ctx, query, id), &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the campaign together with its delivery logs and stats.
func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM email_logs WHERE campaign_id=$1`, id); err != nil {
		return fmt.Errorf("delete email logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_stats WHERE campaign_id=$1`, id); err != nil {
		return fmt.Errorf("delete campaign stats: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, appErrors.NewCampaignNotFound(id)); err != nil {
		return err
	}
	return tx.Commit()
}

const summarySelect = `
        SELECT c.id, c.name, c.prompt, c.status, c.scheduled_for, c.created_at, c.updated_at,
            s.id, s.total_sent, s.total_opened, s.total_clicked, s.total_failed,
            s.open_rate, s.click_rate, s.created_at, s.updated_at,
            (SELECT COUNT(*) FROM email_logs l WHERE l.campaign_id = c.id)
        FROM campaigns c
        LEFT JOIN campaign_stats s ON s.campaign_id = c.id`

func scanSummary(row rowScanner) (*model.CampaignSummary, error) {
	var (
		out       model.CampaignSummary
		statsID   sql.NullInt64
		sent      sql.NullInt64
		opened    sql.NullInt64
		clicked   sql.NullInt64
		failed    sql.NullInt64
		openRate  sql.NullFloat64
		clickRate sql.NullFloat64
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	c := &out.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Prompt, &c.Status, &c.ScheduledFor, &c.CreatedAt, &c.UpdatedAt,
		&statsID, &sent, &opened, &clicked, &failed, &openRate, &clickRate, &createdAt, &updatedAt,
		&out.EmailLogCount)
	if err != nil {
		return nil, err
	}
	if statsID.Valid {
		out.Stats = &model.CampaignStats{
			ID:           int(statsID.Int64),
			CampaignID:   c.ID,
			TotalSent:    int(sent.Int64),
			TotalOpened:  int(opened.Int64),
			TotalClicked: int(clicked.Int64),
			TotalFailed:  int(failed.Int64),
			OpenRate:     openRate.Float64,
			ClickRate:    clickRate.Float64,
			CreatedAt:    createdAt.Time,
			UpdatedAt:    updatedAt.Time,
		}
	}
	return &out, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.CampaignSummary, int, error) {
	query := summarySelect + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND c.status=$%d", argPos)
		countQuery += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	countArgs := append([]interface{}{}, args...)

	query += fmt.Sprintf(" ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.CampaignSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListScheduled returns scheduled campaigns, soonest first.
func (r *CampaignRepository) ListScheduled(ctx context.Context) ([]*model.CampaignSummary, error) {
	query := summarySelect + ` WHERE c.status=$1 ORDER BY c.scheduled_for ASC NULLS LAST`
	rows, err := r.DB.QueryContext(ctx, query, model.CampaignStatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.CampaignSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, s)
	}
	return campaigns, rows.Err()
}

// ListDue returns scheduled campaigns whose scheduled time has passed.
func (r *CampaignRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
        ORDER BY scheduled_for ASC`
	rows, err := r.DB.QueryContext(ctx, query, model.CampaignStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := scanCampaign(rows, c); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns WHERE status=$1`, status).Scan(&total)
	return total, err
}

// ====================== Stats ======================

const statsColumns = `id, campaign_id, total_sent, total_opened, total_clicked, total_failed,
        open_rate, click_rate, created_at, updated_at`

func scanStats(row rowScanner) (*model.CampaignStats, error) {
	var s model.CampaignStats
	err := row.Scan(&s.ID, &s.CampaignID, &s.TotalSent, &s.TotalOpened, &s.TotalClicked,
		&s.TotalFailed, &s.OpenRate, &s.ClickRate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetCampaignStats returns nil, nil when no stats row exists yet.
func (r *CampaignRepository) GetCampaignStats(ctx context.Context, campaignID int) (*model.CampaignStats, error) {
	query := `SELECT ` + statsColumns + ` FROM campaign_stats WHERE campaign_id=$1`
	s, err := scanStats(r.DB.QueryRowContext(ctx, query, campaignID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// RefreshStats recomputes the stats row for a campaign from its email logs.
func (r *CampaignRepository) RefreshStats(ctx context.Context, campaignID int) (*model.CampaignStats, error) {
	var sent, opened, clicked, failed int
	err := r.DB.QueryRowContext(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE status = 'sent'),
            COUNT(*) FILTER (WHERE opened_at IS NOT NULL),
            COUNT(*) FILTER (WHERE clicked_at IS NOT NULL),
            COUNT(*) FILTER (WHERE status = 'failed')
        FROM email_logs WHERE campaign_id=$1`, campaignID).Scan(&sent, &opened, &clicked, &failed)
	if err != nil {
		return nil, fmt.Errorf("aggregate email logs: %w", err)
	}

	openRate, clickRate := Rate(opened, sent), Rate(clicked, sent)
	query := `
        INSERT INTO campaign_stats (campaign_id, total_sent, total_opened, total_clicked, total_failed, open_rate, click_rate)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (campaign_id) DO UPDATE SET
            total_sent=EXCLUDED.total_sent, total_opened=EXCLUDED.total_opened,
            total_clicked=EXCLUDED.total_clicked, total_failed=EXCLUDED.total_failed,
            open_rate=EXCLUDED.open_rate, click_rate=EXCLUDED.click_rate, updated_at=NOW()
        RETURNING ` + statsColumns
	return scanStats(r.DB.QueryRowContext(ctx, query, campaignID, sent, opened, clicked, failed, openRate, clickRate))
}

func (r *CampaignRepository) AverageOpenRate(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := r.DB.QueryRowContext(ctx, `SELECT AVG(open_rate) FROM campaign_stats`).Scan(&avg); err != nil {
		return 0, err
	}
	return math.Round(avg.Float64*100) / 100, nil
}

// Rate returns part as a percentage of whole, rounded to two decimals.
func Rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
