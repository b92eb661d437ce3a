package handler

import (
	"net"
	"strings"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Requests
// =============================================================================

// AutomationItemRequest is one row of the savings breakdown sent by the wizard.
type AutomationItemRequest struct {
	AutomationID      uuid.UUID `json:"automationId"`
	AutomationName    string    `json:"automationName" validate:"required,max=300"`
	CategoryID        uuid.UUID `json:"categoryId"`
	CategoryName      string    `json:"categoryName" validate:"max=200"`
	HoursPerWeek      float64   `json:"hoursPerWeek" validate:"gt=0,lte=168"`
	AutomationPercent int       `json:"automationPercent" validate:"gte=0,lte=100"`
	Weekly            float64   `json:"weekly" validate:"gte=0"`
	Monthly           float64   `json:"monthly" validate:"gte=0"`
	Yearly            float64   `json:"yearly" validate:"gte=0"`
}

// SavingsRequest is the savings payload shared by lead submission, report
// dispatch and export.
type SavingsRequest struct {
	Currency            string                  `json:"currency" validate:"required,oneof=PLN EUR USD"`
	HourlyRate          float64                 `json:"hourlyRate" validate:"gte=1,lte=10000"`
	SelectedAutomations []AutomationItemRequest `json:"selectedAutomations" validate:"required,min=1,dive"`
	TotalSavingsWeekly  float64                 `json:"totalSavingsWeekly" validate:"gte=0"`
	TotalSavingsMonthly float64                 `json:"totalSavingsMonthly" validate:"gte=0"`
	TotalSavingsYearly  float64                 `json:"totalSavingsYearly" validate:"gte=0"`
	MarketingConsent    bool                    `json:"marketingConsent"`
}

// LeadRequest is the body of POST /api/leads.
type LeadRequest struct {
	FirstName   string `json:"firstName" validate:"required,notblank,min=2,max=50,personname"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Phone       string `json:"phone" validate:"required,min=9,max=20,phone"`
	Company     string `json:"company" validate:"max=100"`
	RodoConsent bool   `json:"rodoConsent" validate:"required"`
	SavingsRequest
}

// SendReportRequest is the body of POST /api/send-report and the leadData
// returned by lead submission.
type SendReportRequest struct {
	LeadID    uuid.UUID `json:"leadId" validate:"required"`
	FirstName string    `json:"firstName" validate:"required,notblank,max=50"`
	Email     string    `json:"email" validate:"required,email,max=100"`
	Phone     string    `json:"phone" validate:"max=20"`
	Company   string    `json:"company" validate:"max=100"`
	SavingsRequest
}

// ExportRequest is the body of POST /api/report/pdf. LeadID is optional.
type ExportRequest struct {
	LeadID    uuid.UUID `json:"leadId"`
	FirstName string    `json:"firstName" validate:"required,notblank,max=50"`
	Email     string    `json:"email" validate:"omitempty,email,max=100"`
	Phone     string    `json:"phone" validate:"max=20"`
	Company   string    `json:"company" validate:"max=100"`
	SavingsRequest
}

func (s SavingsRequest) automations() []domain.AutomationSavings {
	out := make([]domain.AutomationSavings, 0, len(s.SelectedAutomations))
	for _, item := range s.SelectedAutomations {
		out = append(out, domain.AutomationSavings{
			AutomationID:      item.AutomationID,
			AutomationName:    strings.TrimSpace(item.AutomationName),
			CategoryID:        item.CategoryID,
			CategoryName:      strings.TrimSpace(item.CategoryName),
			HoursPerWeek:      item.HoursPerWeek,
			AutomationPercent: item.AutomationPercent,
			Weekly:            item.Weekly,
			Monthly:           item.Monthly,
			Yearly:            item.Yearly,
		})
	}
	return out
}

func (s SavingsRequest) total() domain.SavingsResult {
	return domain.SavingsResult{
		Weekly:  s.TotalSavingsWeekly,
		Monthly: s.TotalSavingsMonthly,
		Yearly:  s.TotalSavingsYearly,
	}
}

func (s SavingsRequest) reportData(leadID uuid.UUID, contact domain.Contact) *domain.ReportData {
	return &domain.ReportData{
		LeadID:      leadID,
		Contact:     contact,
		Currency:    domain.Currency(s.Currency),
		HourlyRate:  s.HourlyRate,
		Automations: s.automations(),
		Total:       s.total(),
		MarketingOK: s.MarketingConsent,
	}
}

func (r LeadRequest) contact() domain.Contact {
	return domain.Contact{FirstName: r.FirstName, Email: r.Email, Phone: r.Phone, Company: r.Company}
}

func (r LeadRequest) params(ip string) domain.CreateLeadParams {
	return domain.CreateLeadParams{
		Contact:             r.contact(),
		Currency:            domain.Currency(r.Currency),
		HourlyRate:          r.HourlyRate,
		SelectedAutomations: r.automations(),
		Total:               r.total(),
		MarketingConsent:    r.MarketingConsent,
		SubmitterIP:         net.ParseIP(ip),
	}
}

func (r SendReportRequest) reportData() *domain.ReportData {
	contact := domain.Contact{FirstName: r.FirstName, Email: r.Email, Phone: r.Phone, Company: r.Company}
	return r.SavingsRequest.reportData(r.LeadID, contact)
}

func (r ExportRequest) reportData() *domain.ReportData {
	contact := domain.Contact{FirstName: r.FirstName, Email: r.Email, Phone: r.Phone, Company: r.Company}
	return r.SavingsRequest.reportData(r.LeadID, contact)
}

// =============================================================================
// Responses
// =============================================================================

// LeadCreatedResponse is returned by POST /api/leads.
type LeadCreatedResponse struct {
	Success  bool              `json:"success"`
	LeadID   uuid.UUID         `json:"leadId"`
	LeadData SendReportRequest `json:"leadData"`
}

// LeadResponse is the admin view of a lead.
type LeadResponse struct {
	ID                  uuid.UUID                  `json:"id"`
	FirstName           string                     `json:"firstName"`
	Email               string                     `json:"email"`
	Phone               string                     `json:"phone"`
	Company             string                     `json:"company,omitempty"`
	Currency            domain.Currency            `json:"currency"`
	HourlyRate          float64                    `json:"hourlyRate"`
	SelectedAutomations []domain.AutomationSavings `json:"selectedAutomations"`
	TotalSavingsWeekly  float64                    `json:"totalSavingsWeekly"`
	TotalSavingsMonthly float64                    `json:"totalSavingsMonthly"`
	TotalSavingsYearly  float64                    `json:"totalSavingsYearly"`
	MarketingConsent    bool                       `json:"marketingConsent"`
	SubmitterIP         string                     `json:"submitterIp,omitempty"`
	ReportSentAt        *time.Time                 `json:"reportSentAt"`
	ReportStorageKey    string                     `json:"reportStorageKey,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt"`
}

// LeadListResponse is returned by GET /admin/leads.
type LeadListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	TotalCount int64          `json:"totalCount"`
	Limit      int32          `json:"limit"`
	Offset     int32          `json:"offset"`
}

func toLeadResponse(lead *domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:                  lead.ID,
		FirstName:           lead.FirstName,
		Email:               lead.Email,
		Phone:               lead.Phone,
		Company:             lead.Company,
		Currency:            lead.Currency,
		HourlyRate:          lead.HourlyRate,
		SelectedAutomations: lead.SelectedAutomations,
		TotalSavingsWeekly:  lead.Total.Weekly,
		TotalSavingsMonthly: lead.Total.Monthly,
		TotalSavingsYearly:  lead.Total.Yearly,
		MarketingConsent:    lead.MarketingConsent,
		ReportSentAt:        lead.ReportSentAt,
		ReportStorageKey:    lead.ReportStorageKey,
		CreatedAt:           lead.CreatedAt,
	}
	if lead.SubmitterIP != nil {
		resp.SubmitterIP = lead.SubmitterIP.String()
	}
	return resp
}
