// Package service contains the business logic layer.
//
// This file implements the lead service for persisting calculator leads.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LeadService defines the interface for lead-related operations.
type LeadService interface {
	// Create persists a new lead.
	// Returns domain.EINVALID if the lead has no automations or an unknown currency.
	Create(ctx context.Context, params domain.CreateLeadParams) (*domain.Lead, error)

	// GetByID retrieves a lead.
	// Returns domain.ENOTFOUND if the lead does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)

	// List retrieves a page of leads, newest first.
	List(ctx context.Context, params domain.ListLeadsParams) (*domain.ListLeadsResult, error)

	// MarkReportSent records the client report delivery. It reports false when
	// the lead was already marked.
	MarkReportSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// SetReportStorageKey records where the archived PDF lives.
	SetReportStorageKey(ctx context.Context, id uuid.UUID, key string) error

	// ListUndelivered returns leads older than cutoff whose client report was
	// never delivered and that have no queued job of jobType.
	ListUndelivered(ctx context.Context, cutoff time.Time, jobType string, limit int32) ([]domain.Lead, error)
}

// leadQueries is the part of repository.Queries the lead service uses.
type leadQueries interface {
	CreateLead(ctx context.Context, arg repository.CreateLeadParams) (repository.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ListLeads(ctx context.Context, arg repository.ListLeadsParams) ([]repository.Lead, error)
	CountLeads(ctx context.Context, unsentOnly bool) (int64, error)
	MarkLeadReportSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (int64, error)
	SetLeadReportStorageKey(ctx context.Context, id uuid.UUID, key string) error
	ListUnsentLeadsWithoutJob(ctx context.Context, cutoff time.Time, jobType string, limit int32) ([]repository.Lead, error)
}

// =============================================================================
// Implementation
// =============================================================================

// leadService implements the LeadService interface.
type leadService struct {
	queries leadQueries
	logger  *slog.Logger
}

// NewLeadService creates a new LeadService.
func NewLeadService(queries leadQueries, logger *slog.Logger) LeadService {
	return &leadService{
		queries: queries,
		logger:  logger,
	}
}

// Pagination bounds for List.
const (
	defaultLeadPageSize = 25
	maxLeadPageSize     = 100
)

// Create persists a new lead.
func (s *leadService) Create(ctx context.Context, params domain.CreateLeadParams) (*domain.Lead, error) {
	const op = "lead.create"

	if !params.Currency.IsValid() {
		return nil, domain.NewValidationError(op, "currency", "Nieobsługiwana waluta")
	}
	if len(params.SelectedAutomations) == 0 {
		return nil, domain.NewValidationError(op, "selectedAutomations", "Wybierz przynajmniej jedną automatyzację")
	}

	items, err := json.Marshal(params.SelectedAutomations)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode automations")
	}

	row, err := s.queries.CreateLead(ctx, repository.CreateLeadParams{
		FirstName:           strings.TrimSpace(params.Contact.FirstName),
		Email:               strings.ToLower(strings.TrimSpace(params.Contact.Email)),
		Phone:               strings.TrimSpace(params.Contact.Phone),
		Company:             domain.ToNullString(strings.TrimSpace(params.Contact.Company)),
		Currency:            params.Currency.String(),
		HourlyRate:          params.HourlyRate,
		SelectedAutomations: pqtype.NullRawMessage{RawMessage: items, Valid: true},
		TotalWeekly:         params.Total.Weekly,
		TotalMonthly:        params.Total.Monthly,
		TotalYearly:         params.Total.Yearly,
		MarketingConsent:    params.MarketingConsent,
		SubmitterIp:         toInet(params.SubmitterIP),
	})
	if err != nil {
		return nil, repository.MapError(err, op, "lead", "")
	}

	lead, err := rowToLead(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode lead")
	}

	metrics.LeadsCreated.WithLabelValues(lead.Currency.String()).Inc()
	s.logger.Info("lead created",
		"lead_id", lead.ID,
		"currency", lead.Currency,
		"automations", len(lead.SelectedAutomations),
		"yearly", lead.Total.Yearly,
	)

	return lead, nil
}

// GetByID retrieves a lead.
func (s *leadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	const op = "lead.get"

	row, err := s.queries.GetLead(ctx, id)
	if err != nil {
		return nil, repository.MapError(err, op, "lead", id.String())
	}

	lead, err := rowToLead(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode lead")
	}
	return lead, nil
}

// List retrieves a page of leads.
func (s *leadService) List(ctx context.Context, params domain.ListLeadsParams) (*domain.ListLeadsResult, error) {
	const op = "lead.list"

	if params.Limit <= 0 {
		params.Limit = defaultLeadPageSize
	}
	if params.Limit > maxLeadPageSize {
		params.Limit = maxLeadPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	rows, err := s.queries.ListLeads(ctx, repository.ListLeadsParams{
		UnsentOnly: params.UnsentOnly,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		return nil, repository.MapError(err, op, "lead", "")
	}

	count, err := s.queries.CountLeads(ctx, params.UnsentOnly)
	if err != nil {
		return nil, repository.MapError(err, op, "lead", "")
	}

	leads, err := rowsToLeads(rows)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode leads")
	}

	return &domain.ListLeadsResult{
		Leads:      leads,
		TotalCount: count,
		Limit:      params.Limit,
		Offset:     params.Offset,
	}, nil
}

// MarkReportSent records the client report delivery.
func (s *leadService) MarkReportSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	const op = "lead.mark_report_sent"

	n, err := s.queries.MarkLeadReportSent(ctx, id, at.UTC())
	if err != nil {
		return false, repository.MapError(err, op, "lead", id.String())
	}
	if n > 0 {
		s.logger.Info("lead report marked sent", "lead_id", id)
	}
	return n > 0, nil
}

// SetReportStorageKey records where the archived PDF lives.
func (s *leadService) SetReportStorageKey(ctx context.Context, id uuid.UUID, key string) error {
	const op = "lead.set_report_storage_key"

	if err := s.queries.SetLeadReportStorageKey(ctx, id, key); err != nil {
		return repository.MapError(err, op, "lead", id.String())
	}
	return nil
}

// ListUndelivered returns leads whose report still has to be delivered.
func (s *leadService) ListUndelivered(ctx context.Context, cutoff time.Time, jobType string, limit int32) ([]domain.Lead, error) {
	const op = "lead.list_undelivered"

	rows, err := s.queries.ListUnsentLeadsWithoutJob(ctx, cutoff.UTC(), jobType, limit)
	if err != nil {
		return nil, repository.MapError(err, op, "lead", "")
	}

	leads, err := rowsToLeads(rows)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode leads")
	}
	return leads, nil
}

// =============================================================================
// Conversion
// =============================================================================

func rowToLead(row repository.Lead) (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:         row.ID,
		FirstName:  row.FirstName,
		Email:      row.Email,
		Phone:      row.Phone,
		Company:    domain.NullStringValue(row.Company),
		Currency:   domain.Currency(row.Currency),
		HourlyRate: row.HourlyRate,
		Total: domain.SavingsResult{
			Weekly:  row.TotalWeekly,
			Monthly: row.TotalMonthly,
			Yearly:  row.TotalYearly,
		},
		MarketingConsent: row.MarketingConsent,
		ReportSentAt:     domain.NullTimePtr(row.ReportSentAt),
		ReportStorageKey: domain.NullStringValue(row.ReportStorageKey),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}

	if row.SubmitterIp.Valid {
		lead.SubmitterIP = row.SubmitterIp.IPNet.IP
	}

	lead.SelectedAutomations = []domain.AutomationSavings{}
	if row.SelectedAutomations.Valid && len(row.SelectedAutomations.RawMessage) > 0 {
		if err := json.Unmarshal(row.SelectedAutomations.RawMessage, &lead.SelectedAutomations); err != nil {
			return nil, err
		}
	}

	return lead, nil
}

func rowsToLeads(rows []repository.Lead) ([]domain.Lead, error) {
	leads := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := rowToLead(row)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, nil
}

// toInet converts an IP to a single-host inet value.
func toInet(ip net.IP) pqtype.Inet {
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		bits = 32
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}
