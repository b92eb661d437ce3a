package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/worker"
	"github.com/google/uuid"
)

// ClientReportDeliverer sends a lead's report to its owner.
// service.ReportService satisfies it.
type ClientReportDeliverer interface {
	DeliverClientReport(ctx context.Context, leadID uuid.UUID) (bool, error)
}

// SendClientReportHandler retries client report emails that failed during
// the request or were picked up by the sweep.
type SendClientReportHandler struct {
	reports ClientReportDeliverer
	logger  *slog.Logger
}

// NewSendClientReportHandler creates a new handler for client report jobs.
func NewSendClientReportHandler(reports ClientReportDeliverer, logger *slog.Logger) *SendClientReportHandler {
	return &SendClientReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// Type returns the job type identifier.
func (h *SendClientReportHandler) Type() string {
	return worker.JobTypeSendClientReport
}

// Handle delivers the report. Leads that no longer exist fail permanently;
// everything else is retried by the worker.
func (h *SendClientReportHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := worker.DecodeLeadPayload(payload)
	if err != nil {
		return err
	}

	h.logger.Info("Sending client report", "lead_id", p.LeadID)

	sent, err := h.reports.DeliverClientReport(ctx, p.LeadID)
	if err != nil {
		return worker.PermanentOn(fmt.Errorf("deliver client report: %w", err), domain.ENOTFOUND)
	}

	if !sent {
		h.logger.Info("Client report already delivered, skipping", "lead_id", p.LeadID)
		return nil
	}

	h.logger.Info("Client report sent", "lead_id", p.LeadID)
	return nil
}
