package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/worker"
	"github.com/google/uuid"
)

// ReportArchiver renders and stores a lead's report.
// service.ReportService satisfies it.
type ReportArchiver interface {
	Archive(ctx context.Context, leadID uuid.UUID) (string, error)
}

// ArchiveReportHandler stores a PDF copy of a lead's report.
type ArchiveReportHandler struct {
	reports ReportArchiver
	logger  *slog.Logger
}

// NewArchiveReportHandler creates a new handler for report archive jobs.
func NewArchiveReportHandler(reports ReportArchiver, logger *slog.Logger) *ArchiveReportHandler {
	return &ArchiveReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// Type returns the job type identifier.
func (h *ArchiveReportHandler) Type() string {
	return worker.JobTypeArchiveReport
}

// Handle archives the report.
func (h *ArchiveReportHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := worker.DecodeLeadPayload(payload)
	if err != nil {
		return err
	}

	h.logger.Info("Archiving report", "lead_id", p.LeadID)

	key, err := h.reports.Archive(ctx, p.LeadID)
	if err != nil {
		// A report too large to store stays too large on every attempt.
		return worker.PermanentOn(fmt.Errorf("archive report: %w", err), domain.ENOTFOUND, domain.EINVALID)
	}

	h.logger.Info("Report archived", "lead_id", p.LeadID, "storage_key", key)
	return nil
}
