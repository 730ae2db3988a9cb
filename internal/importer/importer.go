// Package importer turns uploaded contact sheets into model.Contact values.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/emailcraft-backend/internal/model"
)

// Columns is the header row understood by the importer and written by Export.
var Columns = []string{
	"firstName", "lastName", "email", "age", "gender", "location", "lastPurchase",
	"purchaseDate", "totalSpent", "personalityType", "communicationStyle", "interests",
	"phoneNumber", "company", "jobTitle", "source", "isActive", "tags", "customFields",
}

var ErrUnsupportedFormat = errors.New("unsupported file type, expected .csv or .xlsx")

// Parse picks the decoder from the file extension.
func Parse(r io.Reader, filename string) ([]model.Contact, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ParseCSV(r io.Reader) ([]model.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows), nil
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]model.Contact, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

// fromRows maps the header row to column indexes and converts every later row.
// Rows without an email are skipped.
func fromRows(rows [][]string) []model.Contact {
	if len(rows) == 0 {
		return nil
	}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	contacts := make([]model.Contact, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		c := toContact(get)
		if c.Email == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts
}

func toContact(get func(string) string) model.Contact {
	c := model.Contact{
		FirstName:          get("firstName"),
		LastName:           get("lastName"),
		Email:              get("email"),
		Location:           optional(get("location")),
		LastPurchase:       optional(get("lastPurchase")),
		Interests:          optional(get("interests")),
		PhoneNumber:        optional(get("phoneNumber")),
		Company:            optional(get("company")),
		JobTitle:           optional(get("jobTitle")),
		Gender:             enum(get("gender"), model.Genders),
		PersonalityType:    enum(get("personalityType"), model.PersonalityTypes),
		CommunicationStyle: enum(get("communicationStyle"), model.CommunicationStyles),
		Source:             model.ContactSourceCSV,
		IsActive:           get("isActive") != "false",
		Tags:               []string{},
		CustomFields:       map[string]any{},
	}

	if n, err := strconv.Atoi(get("age")); err == nil {
		c.Age = &n
	}
	if f, err := strconv.ParseFloat(get("totalSpent"), 64); err == nil {
		c.TotalSpent = &f
	}
	if t, ok := parseDate(get("purchaseDate")); ok {
		c.PurchaseDate = &t
	}
	if src := get("source"); model.OneOf(src, model.ContactSources) {
		c.Source = src
	}
	if tags := get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			c.Tags = append(c.Tags, strings.TrimSpace(tag))
		}
	}
	if raw := get("customFields"); raw != "" {
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err == nil && fields != nil {
			c.CustomFields = fields
		}
	}
	return c
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func enum(v string, allowed []string) *string {
	if !model.OneOf(v, allowed) {
		return nil
	}
	return &v
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
