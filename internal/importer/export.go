package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/emailcraft-backend/internal/model"
)

const exportSheet = "Contacts"

// ExportXLSX writes contacts to a single-sheet workbook using the import column layout.
func ExportXLSX(contacts []model.Contact) (*bytes.Buffer, error) {
	xl := excelize.NewFile()
	defer xl.Close()

	if err := xl.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := xl.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for ri, c := range contacts {
		record := toRecord(c)
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		if err := xl.SetSheetRow(exportSheet, cellRef, &record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", ri+2, err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func toRecord(c model.Contact) []any {
	fields := "{}"
	if len(c.CustomFields) > 0 {
		if b, err := json.Marshal(c.CustomFields); err == nil {
			fields = string(b)
		}
	}
	var age, spent, purchased string
	if c.Age != nil {
		age = strconv.Itoa(*c.Age)
	}
	if c.TotalSpent != nil {
		spent = strconv.FormatFloat(*c.TotalSpent, 'f', 2, 64)
	}
	if c.PurchaseDate != nil {
		purchased = c.PurchaseDate.Format(time.RFC3339)
	}
	return []any{
		c.FirstName, c.LastName, c.Email, age, deref(c.Gender), deref(c.Location),
		deref(c.LastPurchase), purchased, spent, deref(c.PersonalityType),
		deref(c.CommunicationStyle), deref(c.Interests), deref(c.PhoneNumber),
		deref(c.Company), deref(c.JobTitle), c.Source, strconv.FormatBool(c.IsActive),
		strings.Join(c.Tags, ","), fields,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
