package domain

import (
	"database/sql"
	"net"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Lead Domain Type
// =============================================================================

// Lead is a contact captured by the calculator together with the savings
// breakdown that was shown to the visitor at submission time.
type Lead struct {
	ID                  uuid.UUID           // Unique identifier
	FirstName           string              // Contact first name
	Email               string              // Contact email
	Phone               string              // Contact phone
	Company             string              // Optional company name
	Currency            Currency            // Report currency
	HourlyRate          float64             // Hourly rate used for the calculation
	SelectedAutomations []AutomationSavings // Per-automation breakdown
	Total               SavingsResult       // Totals as submitted
	MarketingConsent    bool                // Optional marketing consent
	SubmitterIP         net.IP              // Client IP (nil when unknown)
	ReportSentAt        *time.Time          // When the client report email was delivered
	ReportStorageKey    string              // Storage key of the archived PDF (empty if not archived)
	CreatedAt           time.Time           // When lead was created
	UpdatedAt           time.Time           // When lead was last modified
}

// ReportSent returns true if the client report email was delivered.
func (l *Lead) ReportSent() bool {
	return l.ReportSentAt != nil
}

// DisplayName returns "FirstName (Company)" or just the first name.
func (l *Lead) DisplayName() string {
	if l.Company == "" {
		return l.FirstName
	}
	return l.FirstName + " (" + l.Company + ")"
}

// =============================================================================
// Parameter Types
// =============================================================================

// Contact holds the contact fields captured in step 4 of the wizard.
type Contact struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// CreateLeadParams contains parameters for persisting a lead.
type CreateLeadParams struct {
	Contact             Contact
	Currency            Currency
	HourlyRate          float64
	SelectedAutomations []AutomationSavings
	Total               SavingsResult
	MarketingConsent    bool
	SubmitterIP         net.IP
}

// ListLeadsParams contains parameters for listing leads.
type ListLeadsParams struct {
	Limit      int32 // Maximum number of leads to return
	Offset     int32 // Number of leads to skip
	UnsentOnly bool  // Only leads without a delivered report
}

// ListLeadsResult contains the result of listing leads.
type ListLeadsResult struct {
	Leads      []Lead `json:"leads"`
	TotalCount int64  `json:"totalCount"`
	Limit      int32  `json:"limit"`
	Offset     int32  `json:"offset"`
}

// =============================================================================
// Helper Functions
// =============================================================================

// NullStringValue returns the string value or empty string if null.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString (empty string = null).
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullTimePtr converts sql.NullTime to a *time.Time.
func NullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
