package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	return conn, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	}
}

func TestEmailLogCreateAndUpdate(t *testing.T) {
	conn, mock, done := newMock(t)
	defer done()
	repo := &EmailLogRepository{DB: conn}
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO email_logs`).
		WithArgs(2, 1, "Hi Alice", "Body", model.EmailStatusPending, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	l := model.NewPendingEmailLog(1, 2, "Hi Alice", "Body")
	require.NoError(t, repo.Create(ctx, l))
	assert.Equal(t, 10, l.ID)

	mock.ExpectExec(`UPDATE email_logs`).
		WithArgs(model.EmailStatusFailed, nil, "Failed to send email", sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l.MarkFailed("Failed to send email")
	require.NoError(t, repo.Update(ctx, l))
}

func TestCampaignGetByIDNotFound(t *testing.T) {
	conn, mock, done := newMock(t)
	defer done()
	repo := &CampaignRepository{DB: conn}

	mock.ExpectQuery(`SELECT id, name, prompt, status`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "prompt", "status", "scheduled_for", "created_at", "updated_at"}))

	c, err := repo.GetByID(context.Background(), 42)
	assert.Nil(t, c)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCampaignUpdateStatusMissingRow(t *testing.T) {
	conn, mock, done := newMock(t)
	defer done()
	repo := &CampaignRepository{DB: conn}

	mock.ExpectExec(`UPDATE campaigns SET status`).
		WithArgs(model.CampaignStatusCompleted, sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 5, model.CampaignStatusCompleted)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestContactCreateDuplicateEmail(t *testing.T) {
	conn, mock, done := newMock(t)
	defer done()
	repo := &ContactRepository{DB: conn}

	mock.ExpectQuery(`INSERT INTO contacts`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), &model.Contact{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"})
	assert.True(t, appErrors.IsValidation(err))
	assert.EqualError(t, err, "email already exists")
}

func TestContactListAllDecodesColumns(t *testing.T) {
	conn, mock, done := newMock(t)
	defer done()
	repo := &ContactRepository{DB: conn}

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "first_name", "last_name", "email", "age", "gender", "location", "last_purchase",
		"purchase_date", "total_spent", "personality_type", "communication_style", "interests",
		"phone_number", "company", "job_title", "source", "is_active", "tags", "custom_fields",
		"created_at", "updated_at"}
	mock.ExpectQuery(`FROM contacts ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "Bob", "Jones", "bob@example.com", nil, nil, nil, nil,
				nil, nil, nil, nil, nil, nil, nil, nil, "csv", true, []byte("{}"), []byte("{}"), now, now).
			AddRow(1, "Alice", "Smith", "alice@example.com", 34, "Female", "Nairobi", "Shoes",
				now, []byte("120.50"), "Creative", "Friendly", "running", nil, nil, nil, "manual", true,
				[]byte("{vip,runner}"), []byte(`{"tier":"gold"}`), now, now))

	contacts, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, "Bob", contacts[0].FirstName)
	assert.Nil(t, contacts[0].Age)
	assert.Empty(t, contacts[0].Tags)

	alice := contacts[1]
	require.NotNil(t, alice.Age)
	assert.Equal(t, 34, *alice.Age)
	require.NotNil(t, alice.TotalSpent)
	assert.InDelta(t, 120.5, *alice.TotalSpent, 0.001)
	assert.Equal(t, []string{"vip", "runner"}, alice.Tags)
	assert.Equal(t, "gold", alice.CustomFields["tier"])
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(3, 0))
	assert.Equal(t, 33.33, Rate(1, 3))
	assert.Equal(t, 100.0, Rate(4, 4))
}
