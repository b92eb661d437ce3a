// Package service contains the business logic layer.
//
// This file implements report delivery: the client and admin emails and
// the PDF export.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/email"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/report"
	"github.com/DukeRupert/ordoflow/internal/worker"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService delivers savings reports.
type ReportService interface {
	// Send emails the report to the client and notifies the admin. Both
	// deliveries run concurrently and each outcome is reported separately.
	// A delivered client report marks the lead; a failed one is queued for
	// retry.
	Send(ctx context.Context, data *domain.ReportData) *DeliveryResult

	// Export renders the report as a PDF into w. Reports that belong to a
	// lead are also queued for archiving.
	Export(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error)

	// Archive renders a lead's report and stores it, returning the key.
	Archive(ctx context.Context, leadID uuid.UUID) (string, error)

	// ArchiveLink returns a download URL for a lead's archived report.
	ArchiveLink(ctx context.Context, leadID uuid.UUID) (string, error)

	// DeliverClientReport sends the stored report of a lead to its owner
	// unless it was already delivered. It reports whether an email was sent.
	DeliverClientReport(ctx context.Context, leadID uuid.UUID) (bool, error)
}

// Delivery is the outcome of one email.
type Delivery struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeliveryResult is the outcome of Send.
type DeliveryResult struct {
	Client  Delivery `json:"clientEmail"`
	Admin   Delivery `json:"adminEmail"`
	Retried bool     `json:"retryQueued,omitempty"`
}

// AnyDelivered reports whether at least one email went out.
func (r *DeliveryResult) AnyDelivered() bool {
	return r.Client.Success || r.Admin.Success
}

// Client-facing delivery error messages. Transport details stay in the logs.
const (
	msgClientEmailFailed = "Nie udało się wysłać raportu. Spróbujemy ponownie wkrótce."
	msgAdminEmailFailed  = "Nie udało się powiadomić zespołu."
)

// ReportConfig holds report delivery settings.
type ReportConfig struct {
	AppURL       string        // Public base URL used in links
	ContactURL   string        // Call-to-action target
	EmailTimeout time.Duration // Per-email deadline
}

// =============================================================================
// Implementation
// =============================================================================

type reportService struct {
	leads     LeadService
	emails    email.EmailService
	generator report.Generator
	archive   Archiver // nil disables archiving
	queue     worker.Queue
	config    ReportConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService. A nil archiver disables
// archiving.
func NewReportService(
	leads LeadService,
	emails email.EmailService,
	generator report.Generator,
	archiver Archiver,
	queue worker.Queue,
	config ReportConfig,
	logger *slog.Logger,
) ReportService {
	if config.EmailTimeout <= 0 {
		config.EmailTimeout = 15 * time.Second
	}
	return &reportService{
		leads:     leads,
		emails:    emails,
		generator: generator,
		archive:   archiver,
		queue:     queue,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Send emails the report to the client and the admin.
func (s *reportService) Send(ctx context.Context, data *domain.ReportData) *DeliveryResult {
	s.decorate(data)
	logger := s.logger.With("lead_id", data.LeadID)

	var clientErr, adminErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sendCtx, cancel := context.WithTimeout(ctx, s.config.EmailTimeout)
		defer cancel()
		clientErr = s.emails.SendClientReport(sendCtx, data)
	}()
	go func() {
		defer wg.Done()
		sendCtx, cancel := context.WithTimeout(ctx, s.config.EmailTimeout)
		defer cancel()
		adminErr = s.emails.SendAdminNotification(sendCtx, data)
	}()
	wg.Wait()

	metrics.EmailResult("client", clientErr)
	metrics.EmailResult("admin", adminErr)

	result := &DeliveryResult{
		Client: Delivery{Success: clientErr == nil},
		Admin:  Delivery{Success: adminErr == nil},
	}

	// The request may be gone by now; bookkeeping must still land.
	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if clientErr != nil {
		result.Client.Error = msgClientEmailFailed
		logger.Warn("client report email failed", "error", clientErr)
		if data.LeadID != uuid.Nil {
			if _, err := worker.EnqueueSendClientReport(bgCtx, s.queue, data.LeadID); err != nil {
				logger.Error("failed to queue client report retry", "error", err)
			} else {
				result.Retried = true
			}
		}
	} else if data.LeadID != uuid.Nil {
		if _, err := s.leads.MarkReportSent(bgCtx, data.LeadID, s.now()); err != nil {
			// The email went out; a missing timestamp only affects the sweep.
			logger.Error("failed to mark report sent", "error", err)
		}
	}

	if adminErr != nil {
		result.Admin.Error = msgAdminEmailFailed
		logger.Warn("admin notification email failed", "error", adminErr)
	}

	logger.Info("report dispatched",
		"client_sent", result.Client.Success,
		"admin_sent", result.Admin.Success,
	)
	return result
}

// Export renders the report as a PDF.
func (s *reportService) Export(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	const op = "report.export"

	s.decorate(data)
	n, err := s.generator.Generate(ctx, data, w)
	if err != nil {
		return n, domain.FromContext(err, op, "failed to render report")
	}
	metrics.ReportsExported.WithLabelValues(s.generator.Format().String(), "download").Inc()

	if data.LeadID != uuid.Nil && s.archive != nil {
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := worker.EnqueueArchiveReport(bgCtx, s.queue, data.LeadID); err != nil {
			s.logger.Error("failed to queue report archive", "lead_id", data.LeadID, "error", err)
		}
	}

	s.logger.Info("report exported", "lead_id", data.LeadID, "bytes", n)
	return n, nil
}

// Archive renders a lead's report and stores it.
func (s *reportService) Archive(ctx context.Context, leadID uuid.UUID) (string, error) {
	const op = "report.archive"

	if s.archive == nil {
		return "", domain.Errorf(domain.EUNAVAILABLE, op, "report archive is not configured")
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if lead.ReportStorageKey != "" {
		return lead.ReportStorageKey, nil
	}

	data := domain.ReportDataFromLead(lead, s.config.AppURL, s.now())
	s.decorate(data)

	var buf bytes.Buffer
	if _, err := s.generator.Generate(ctx, data, &buf); err != nil {
		return "", domain.FromContext(err, op, "failed to render report")
	}

	key, err := s.archive.Store(ctx, lead.ID, lead.CreatedAt, s.generator.Format(), &buf)
	if err != nil {
		return "", err
	}

	if err := s.leads.SetReportStorageKey(ctx, lead.ID, key); err != nil {
		return "", err
	}

	metrics.ReportsExported.WithLabelValues(s.generator.Format().String(), "archive").Inc()
	s.logger.Info("report archived", "lead_id", lead.ID, "key", key)
	return key, nil
}

func (s *reportService) ArchiveLink(ctx context.Context, leadID uuid.UUID) (string, error) {
	const op = "report.archive_link"

	if s.archive == nil {
		return "", domain.Errorf(domain.EUNAVAILABLE, op, "report archive is not configured")
	}
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if lead.ReportStorageKey == "" {
		return "", domain.NotFound(op, "archived report", leadID.String())
	}
	return s.archive.Link(ctx, lead.ReportStorageKey)
}

// DeliverClientReport sends the stored report of a lead.
func (s *reportService) DeliverClientReport(ctx context.Context, leadID uuid.UUID) (bool, error) {
	const op = "report.deliver_client"

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return false, err
	}
	if lead.ReportSent() {
		s.logger.Info("client report already delivered", "lead_id", lead.ID)
		return false, nil
	}

	data := domain.ReportDataFromLead(lead, s.config.AppURL, s.now())
	s.decorate(data)

	sendCtx, cancel := context.WithTimeout(ctx, s.config.EmailTimeout)
	defer cancel()
	err = s.emails.SendClientReport(sendCtx, data)
	metrics.EmailResult("client", err)
	if err != nil {
		return false, domain.FromContext(err, op, fmt.Sprintf("failed to email lead %s", lead.ID))
	}

	if _, err := s.leads.MarkReportSent(ctx, lead.ID, s.now()); err != nil {
		return true, err
	}
	return true, nil
}

// decorate fills in the links and the timestamp the caller left empty.
func (s *reportService) decorate(data *domain.ReportData) {
	if data.AppURL == "" {
		data.AppURL = s.config.AppURL
	}
	if data.ContactURL == "" {
		data.ContactURL = s.config.ContactURL
	}
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = s.now()
	}
}
