package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Report Format
// =============================================================================

// ReportFormat represents the output format of an exported report.
type ReportFormat string

const (
	// ReportFormatPDF generates a PDF document.
	ReportFormatPDF ReportFormat = "pdf"
)

// String returns the string representation of the format.
func (f ReportFormat) String() string {
	return string(f)
}

// ContentType returns the MIME content type for the format.
func (f ReportFormat) ContentType() string {
	if f == ReportFormatPDF {
		return "application/pdf"
	}
	return "application/octet-stream"
}

// =============================================================================
// Report Data
// =============================================================================

// ReportData is everything needed to render a savings report, whether as an
// email body or as an exported document.
type ReportData struct {
	LeadID      uuid.UUID           // Lead the report belongs to (uuid.Nil for anonymous exports)
	Contact     Contact             // Recipient contact details
	Currency    Currency            // Report currency
	HourlyRate  float64             // Hourly rate used in the calculation
	Automations []AutomationSavings // Per-automation breakdown
	Total       SavingsResult       // Aggregate savings
	GeneratedAt time.Time           // Generation timestamp
	AppURL      string              // Public application URL for links
	ContactURL  string              // Call-to-action target
	MarketingOK bool                // Marketing consent, shown to operators only
}

// AutomationCount returns the number of automations in the report.
func (d *ReportData) AutomationCount() int {
	return len(d.Automations)
}

// ReportDataFromLead builds ReportData for a persisted lead.
func ReportDataFromLead(lead *Lead, appURL string, now time.Time) *ReportData {
	return &ReportData{
		LeadID: lead.ID,
		Contact: Contact{
			FirstName: lead.FirstName,
			Email:     lead.Email,
			Phone:     lead.Phone,
			Company:   lead.Company,
		},
		Currency:    lead.Currency,
		HourlyRate:  lead.HourlyRate,
		Automations: lead.SelectedAutomations,
		Total:       lead.Total,
		GeneratedAt: now,
		AppURL:      appURL,
		MarketingOK: lead.MarketingConsent,
	}
}
