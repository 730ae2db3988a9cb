package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/importer"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/repository/repotest"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

func TestCreateContactDefaults(t *testing.T) {
	svc := &service.ContactService{ContactRepo: &repotest.ContactRepo{}}

	c, err := svc.CreateContact(context.Background(), service.ContactInput{
		FirstName: strPtr("Alice"),
		LastName:  strPtr("Smith"),
		Email:     strPtr("alice@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContactSourceManual, c.Source)
	assert.True(t, c.IsActive)
	assert.NotNil(t, c.Tags)
	assert.NotNil(t, c.CustomFields)
}

func TestCreateContactRequiresNameAndEmail(t *testing.T) {
	svc := &service.ContactService{ContactRepo: &repotest.ContactRepo{}}

	_, err := svc.CreateContact(context.Background(), service.ContactInput{FirstName: strPtr("Alice")})
	assert.True(t, appErrors.IsValidation(err))
}

func TestCreateContactDuplicateEmail(t *testing.T) {
	repo := &repotest.ContactRepo{Contacts: []model.Contact{contact(1, "Alice", "alice@example.com")}}
	svc := &service.ContactService{ContactRepo: repo}

	_, err := svc.CreateContact(context.Background(), service.ContactInput{
		FirstName: strPtr("Other"), LastName: strPtr("Alice"), Email: strPtr("alice@example.com"),
	})
	assert.True(t, appErrors.IsValidation(err))
}

func TestUpdateContactPartial(t *testing.T) {
	repo := &repotest.ContactRepo{Contacts: []model.Contact{contact(1, "Alice", "alice@example.com")}}
	svc := &service.ContactService{ContactRepo: repo}
	inactive := false

	c, err := svc.UpdateContact(context.Background(), 1, service.ContactInput{
		Company:  strPtr("Acme"),
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.FirstName)
	require.NotNil(t, c.Company)
	assert.Equal(t, "Acme", *c.Company)
	assert.False(t, c.IsActive)

	_, err = svc.UpdateContact(context.Background(), 7, service.ContactInput{})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestDeleteContact(t *testing.T) {
	repo := &repotest.ContactRepo{Contacts: []model.Contact{contact(1, "Alice", "alice@example.com")}}
	svc := &service.ContactService{ContactRepo: repo}

	require.NoError(t, svc.DeleteContact(context.Background(), 1))
	assert.True(t, appErrors.IsNotFound(svc.DeleteContact(context.Background(), 1)))
}

func TestImportSkipsExistingEmails(t *testing.T) {
	repo := &repotest.ContactRepo{Contacts: []model.Contact{contact(1, "Alice", "alice@example.com")}}
	svc := &service.ContactService{ContactRepo: repo}

	csv := "firstName,lastName,email\nAlice,Smith,alice@example.com\nBob,Jones,bob@example.com\n"
	n, err := svc.Import(context.Background(), strings.NewReader(csv), "contacts.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.Inserted, 1)
	assert.Equal(t, "bob@example.com", repo.Inserted[0].Email)
	assert.Equal(t, model.ContactSourceCSV, repo.Inserted[0].Source)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	svc := &service.ContactService{ContactRepo: &repotest.ContactRepo{}}

	_, err := svc.Import(context.Background(), strings.NewReader("x"), "contacts.txt")
	assert.True(t, appErrors.IsValidation(err))
}

func TestExportRoundTrip(t *testing.T) {
	repo := &repotest.ContactRepo{Contacts: []model.Contact{contact(1, "Alice", "alice@example.com")}}
	svc := &service.ContactService{ContactRepo: repo}

	buf, err := svc.Export(context.Background())
	require.NoError(t, err)

	contacts, err := importer.ParseXLSX(buf)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "alice@example.com", contacts[0].Email)
}
