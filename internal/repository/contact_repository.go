package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByID(ctx context.Context, id int) (*model.Contact, error)
	ListAll(ctx context.Context) ([]model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	BulkInsert(ctx context.Context, contacts []model.Contact) (int, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, first_name, last_name, email, age, gender, location, last_purchase,
        purchase_date, total_spent, personality_type, communication_style, interests,
        phone_number, company, job_title, source, is_active, tags, custom_fields,
        created_at, updated_at`

const pqUniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var customFields []byte
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Age, &c.Gender, &c.Location,
		&c.LastPurchase, &c.PurchaseDate, &c.TotalSpent, &c.PersonalityType,
		&c.CommunicationStyle, &c.Interests, &c.PhoneNumber, &c.Company, &c.JobTitle,
		&c.Source, &c.IsActive, pq.Array(&c.Tags), &customFields, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CustomFields = map[string]any{}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &c.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom_fields for contact %d: %w", c.ID, err)
		}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func encodeCustomFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(fields)
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return appErrors.NewValidation("email already exists")
	}
	return err
}

// Create inserts a contact and fills its ID and timestamps
func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Source == "" {
		c.Source = model.ContactSourceManual
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO contacts (first_name, last_name, email, age, gender, location, last_purchase,
            purchase_date, total_spent, personality_type, communication_style, interests,
            phone_number, company, job_title, source, is_active, tags, custom_fields,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
        RETURNING id
    `
	err = r.DB.QueryRowContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Age, c.Gender, c.Location, c.LastPurchase,
		c.PurchaseDate, c.TotalSpent, c.PersonalityType, c.CommunicationStyle, c.Interests,
		c.PhoneNumber, c.Company, c.JobTitle, c.Source, c.IsActive, pq.Array(c.Tags), fields,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id int) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewContactNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// ListAll returns every contact, newest first. The send loop relies on this order being stable.
func (r *ContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return err
	}

	query := `
        UPDATE contacts
        SET first_name=$1, last_name=$2, email=$3, age=$4, gender=$5, location=$6,
            last_purchase=$7, purchase_date=$8, total_spent=$9, personality_type=$10,
            communication_style=$11, interests=$12, phone_number=$13, company=$14,
            job_title=$15, source=$16, is_active=$17, tags=$18, custom_fields=$19, updated_at=$20
        WHERE id=$21
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Age, c.Gender, c.Location,
		c.LastPurchase, c.PurchaseDate, c.TotalSpent, c.PersonalityType,
		c.CommunicationStyle, c.Interests, c.PhoneNumber, c.Company,
		c.JobTitle, c.Source, c.IsActive, pq.Array(c.Tags), fields, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOneRow(res, appErrors.NewContactNotFound(c.ID))
}

func (r *ContactRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, appErrors.NewContactNotFound(id))
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&total)
	return total, err
}

// BulkInsert inserts contacts in one transaction, skipping emails that already exist.
// It returns the number of rows actually inserted.
func (r *ContactRepository) BulkInsert(ctx context.Context, contacts []model.Contact) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO contacts (first_name, last_name, email, age, gender, location, last_purchase,
            purchase_date, total_spent, personality_type, communication_style, interests,
            phone_number, company, job_title, source, is_active, tags, custom_fields)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
        ON CONFLICT (email) DO NOTHING
    `)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range contacts {
		if c.Tags == nil {
			c.Tags = []string{}
		}
		fields, err := encodeCustomFields(c.CustomFields)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx,
			c.FirstName, c.LastName, c.Email, c.Age, c.Gender, c.Location, c.LastPurchase,
			c.PurchaseDate, c.TotalSpent, c.PersonalityType, c.CommunicationStyle, c.Interests,
			c.PhoneNumber, c.Company, c.JobTitle, c.Source, c.IsActive, pq.Array(c.Tags), fields,
		)
		if err != nil {
			return 0, fmt.Errorf("insert contact %s: %w", c.Email, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
