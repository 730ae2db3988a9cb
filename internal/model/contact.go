// internal/model/contact.go
package model

import "time"

const (
	ContactSourceManual = "manual"
	ContactSourceCSV    = "csv"
	ContactSourceImport = "import"
	ContactSourceAPI    = "api"
)

type Contact struct {
	ID                 int            `db:"id" json:"id"`
	FirstName          string         `db:"first_name" json:"firstName"`
	LastName           string         `db:"last_name" json:"lastName"`
	Email              string         `db:"email" json:"email"`
	Age                *int           `db:"age" json:"age"`
	Gender             *string        `db:"gender" json:"gender"`
	Location           *string        `db:"location" json:"location"`
	LastPurchase       *string        `db:"last_purchase" json:"lastPurchase"`
	PurchaseDate       *time.Time     `db:"purchase_date" json:"purchaseDate"`
	TotalSpent         *float64       `db:"total_spent" json:"totalSpent"`
	PersonalityType    *string        `db:"personality_type" json:"personalityType"`
	CommunicationStyle *string        `db:"communication_style" json:"communicationStyle"`
	Interests          *string        `db:"interests" json:"interests"`
	PhoneNumber        *string        `db:"phone_number" json:"phoneNumber"`
	Company            *string        `db:"company" json:"company"`
	JobTitle           *string        `db:"job_title" json:"jobTitle"`
	Source             string         `db:"source" json:"source"`
	IsActive           bool           `db:"is_active" json:"isActive"`
	Tags               []string       `db:"tags" json:"tags"`
	CustomFields       map[string]any `db:"custom_fields" json:"customFields"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

var (
	Genders             = []string{"Female", "Male", "Other", "Prefer not to say"}
	PersonalityTypes    = []string{"Analytical", "Creative", "Social", "Practical"}
	CommunicationStyles = []string{"Direct", "Friendly", "Professional", "Casual"}
	ContactSources      = []string{ContactSourceManual, ContactSourceCSV, ContactSourceImport, ContactSourceAPI}
)

// OneOf reports whether v is one of allowed.
func OneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
