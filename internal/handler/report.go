package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/report"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/validation"
	"github.com/google/uuid"
)

// ReportHandler handles report dispatch and export.
type ReportHandler struct {
	leads     service.LeadService
	reports   service.ReportService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	leads service.LeadService,
	reports service.ReportService,
	validator *validation.Validator,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		leads:     leads,
		reports:   reports,
		validator: validator,
		logger:    logger,
	}
}

// SendReportResponse is returned by POST /api/send-report.
type SendReportResponse struct {
	Success bool `json:"success"`
	*service.DeliveryResult
}

// RegisterRoutes registers report routes. cors wraps the public routes
// and limit guards report dispatch.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, cors, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/send-report", cors(limit(http.HandlerFunc(h.Send))))
	mux.Handle("OPTIONS /api/send-report", cors(http.HandlerFunc(NoContent)))
	mux.HandleFunc("POST /api/report/pdf", h.Export)
}

// Send emails the report to the client and notifies the admin.
// POST /api/send-report
func (h *ReportHandler) Send(w http.ResponseWriter, r *http.Request) {
	const op = "report.send"

	var req SendReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.validator.Struct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if _, err := h.leads.GetByID(r.Context(), req.LeadID); err != nil {
		errorResponseWithMessage(w, r, h.logger, err, msgReportFailed)
		return
	}

	result := h.reports.Send(r.Context(), req.reportData())
	status := http.StatusOK
	if !result.AnyDelivered() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, SendReportResponse{
		Success:        result.AnyDelivered(),
		DeliveryResult: result,
	})
}

// Export renders the report as a PDF download.
// POST /api/report/pdf
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	const op = "report.export_request"

	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.validator.Struct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	data := req.reportData()
	if data.LeadID != uuid.Nil {
		if _, err := h.leads.GetByID(r.Context(), data.LeadID); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	// Render fully before writing headers so a failure still gets a JSON error.
	var buf bytes.Buffer
	if _, err := h.reports.Export(r.Context(), data, &buf); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	format := domain.ReportFormatPDF
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(req.FirstName, data.GeneratedAt, format)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to stream report", "lead_id", data.LeadID, "error", err)
	}
}
