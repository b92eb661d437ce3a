package domain

import "github.com/google/uuid"

// =============================================================================
// Savings Types
// =============================================================================

// SavingsResult is a weekly/monthly/yearly savings triple in the report currency.
type SavingsResult struct {
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// AutomationSavings is the savings breakdown of a single selected automation.
type AutomationSavings struct {
	AutomationID      uuid.UUID `json:"automationId"`
	AutomationName    string    `json:"automationName"`
	CategoryID        uuid.UUID `json:"categoryId"`
	CategoryName      string    `json:"categoryName"`
	HoursPerWeek      float64   `json:"hoursPerWeek"`
	AutomationPercent int       `json:"automationPercent"`
	Weekly            float64   `json:"weekly"`
	Monthly           float64   `json:"monthly"`
	Yearly            float64   `json:"yearly"`
}

// Savings returns the triple of the breakdown.
func (a AutomationSavings) Savings() SavingsResult {
	return SavingsResult{Weekly: a.Weekly, Monthly: a.Monthly, Yearly: a.Yearly}
}

// SavingsReport is the full derived savings view for a wizard state.
//
// ByCategory is keyed by category display name; two categories sharing a
// name are merged. ByCategoryID carries the same sums keyed by identifier.
type SavingsReport struct {
	Total        SavingsResult               `json:"total"`
	ByAutomation []AutomationSavings         `json:"byAutomation"`
	ByCategory   map[string]SavingsResult    `json:"byCategory"`
	ByCategoryID map[uuid.UUID]SavingsResult `json:"byCategoryId"`
	Currency     Currency                    `json:"currency"`
	HourlyRate   float64                     `json:"hourlyRate"`
}
