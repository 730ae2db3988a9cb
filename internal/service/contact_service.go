package service

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"time"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/importer"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
)

type ContactService struct {
	ContactRepo repository.ContactRepositoryInterface
}

// ContactInput is shared by create and partial update; nil means "not supplied".
type ContactInput struct {
	FirstName          *string        `json:"firstName" validate:"omitempty,min=1"`
	LastName           *string        `json:"lastName" validate:"omitempty,min=1"`
	Email              *string        `json:"email" validate:"omitempty,email"`
	Age                *int           `json:"age" validate:"omitempty,min=1,max=150"`
	Gender             *string        `json:"gender" validate:"omitempty,oneof=Female Male Other 'Prefer not to say'"`
	Location           *string        `json:"location"`
	LastPurchase       *string        `json:"lastPurchase"`
	PurchaseDate       *time.Time     `json:"purchaseDate"`
	TotalSpent         *float64       `json:"totalSpent" validate:"omitempty,min=0"`
	PersonalityType    *string        `json:"personalityType" validate:"omitempty,oneof=Analytical Creative Social Practical"`
	CommunicationStyle *string        `json:"communicationStyle" validate:"omitempty,oneof=Direct Friendly Professional Casual"`
	Interests          *string        `json:"interests"`
	PhoneNumber        *string        `json:"phoneNumber"`
	Company            *string        `json:"company"`
	JobTitle           *string        `json:"jobTitle"`
	Source             *string        `json:"source" validate:"omitempty,oneof=manual csv import api"`
	IsActive           *bool          `json:"isActive"`
	Tags               []string       `json:"tags"`
	CustomFields       map[string]any `json:"customFields"`
}

// apply copies every supplied field onto c.
func (in ContactInput) apply(c *model.Contact) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FirstName, in.FirstName)
	set(&c.LastName, in.LastName)
	set(&c.Email, in.Email)
	set(&c.Source, in.Source)

	if in.Age != nil {
		c.Age = in.Age
	}
	if in.Gender != nil {
		c.Gender = in.Gender
	}
	if in.Location != nil {
		c.Location = in.Location
	}
	if in.LastPurchase != nil {
		c.LastPurchase = in.LastPurchase
	}
	if in.PurchaseDate != nil {
		c.PurchaseDate = in.PurchaseDate
	}
	if in.TotalSpent != nil {
		c.TotalSpent = in.TotalSpent
	}
	if in.PersonalityType != nil {
		c.PersonalityType = in.PersonalityType
	}
	if in.CommunicationStyle != nil {
		c.CommunicationStyle = in.CommunicationStyle
	}
	if in.Interests != nil {
		c.Interests = in.Interests
	}
	if in.PhoneNumber != nil {
		c.PhoneNumber = in.PhoneNumber
	}
	if in.Company != nil {
		c.Company = in.Company
	}
	if in.JobTitle != nil {
		c.JobTitle = in.JobTitle
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	if in.CustomFields != nil {
		c.CustomFields = in.CustomFields
	}
}

func (s *ContactService) CreateContact(ctx context.Context, in ContactInput) (*model.Contact, error) {
	c := &model.Contact{
		Source:       model.ContactSourceManual,
		IsActive:     true,
		Tags:         []string{},
		CustomFields: map[string]any{},
	}
	in.apply(c)

	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" || strings.TrimSpace(c.Email) == "" {
		return nil, appErrors.NewValidation("firstName, lastName and email are required")
	}

	if err := s.ContactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) GetContact(ctx context.Context, id int) (*model.Contact, error) {
	return s.ContactRepo.GetByID(ctx, id)
}

func (s *ContactService) ListContacts(ctx context.Context) ([]model.Contact, error) {
	contacts, err := s.ContactRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, nil
}

func (s *ContactService) UpdateContact(ctx context.Context, id int, in ContactInput) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.ContactRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContact removes the contact. Its email logs go with it through the foreign key.
func (s *ContactService) DeleteContact(ctx context.Context, id int) error {
	return s.ContactRepo.Delete(ctx, id)
}

// Import parses an uploaded sheet and inserts its contacts, skipping known emails.
// It returns how many rows were inserted.
func (s *ContactService) Import(ctx context.Context, r io.Reader, filename string) (int, error) {
	contacts, err := importer.Parse(r, filename)
	if err != nil {
		return 0, appErrors.NewValidation("%v", err)
	}
	if len(contacts) == 0 {
		return 0, nil
	}

	inserted, err := s.ContactRepo.BulkInsert(ctx, contacts)
	if err != nil {
		return 0, err
	}
	log.Printf("✅ Imported %d of %d contacts from %s", inserted, len(contacts), filename)
	return inserted, nil
}

// Export writes every contact to an xlsx workbook.
func (s *ContactService) Export(ctx context.Context) (*bytes.Buffer, error) {
	contacts, err := s.ContactRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return importer.ExportXLSX(contacts)
}
