package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/seed"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/google/uuid"
)

// maxSetupBytes limits catalog documents posted to /admin/setup.
const maxSetupBytes = 8 << 20

// CatalogImporter writes a catalog document.
type CatalogImporter interface {
	Import(ctx context.Context, doc *seed.Document) (*domain.ImportResult, error)
}

// ReportLinker resolves the download link of an archived report.
type ReportLinker interface {
	ArchiveLink(ctx context.Context, leadID uuid.UUID) (string, error)
}

// JobStats reports the job queue by status.
type JobStats interface {
	Stats(ctx context.Context) (map[string]int64, error)
}

// AdminHandler handles operator requests.
type AdminHandler struct {
	leads    service.LeadService
	catalog  service.CatalogService
	importer CatalogImporter
	reports  ReportLinker
	jobs     JobStats // nil when the worker is disabled
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. jobs may be nil.
func NewAdminHandler(
	leads service.LeadService,
	catalog service.CatalogService,
	importer CatalogImporter,
	reports ReportLinker,
	jobs JobStats,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		leads:    leads,
		catalog:  catalog,
		importer: importer,
		reports:  reports,
		jobs:     jobs,
		logger:   logger,
	}
}

// RegisterRoutes registers admin routes with the provided middleware.
func (h *AdminHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAdmin func(http.Handler) http.Handler,
	requireSetupKey func(http.Handler) http.Handler,
) {
	mux.Handle("GET /admin/leads", requireAdmin(http.HandlerFunc(h.LeadsList)))
	mux.Handle("GET /admin/leads/{id}", requireAdmin(http.HandlerFunc(h.LeadDetail)))
	mux.Handle("GET /admin/leads/{id}/report", requireAdmin(http.HandlerFunc(h.LeadReport)))
	mux.Handle("GET /admin/jobs", requireAdmin(http.HandlerFunc(h.Jobs)))
	mux.Handle("POST /admin/setup", requireSetupKey(http.HandlerFunc(h.Setup)))
}

// LeadsList returns a page of leads.
// GET /admin/leads?limit=25&offset=0&unsent=true
func (h *AdminHandler) LeadsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	unsent, _ := strconv.ParseBool(q.Get("unsent"))

	result, err := h.leads.List(r.Context(), domain.ListLeadsParams{
		Limit:      int32(limit),
		Offset:     int32(offset),
		UnsentOnly: unsent,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := LeadListResponse{
		Leads:      make([]LeadResponse, 0, len(result.Leads)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for i := range result.Leads {
		resp.Leads = append(resp.Leads, toLeadResponse(&result.Leads[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LeadDetail returns one lead.
// GET /admin/leads/{id}
func (h *AdminHandler) LeadDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	lead, err := h.leads.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadResponse(lead))
}

// LeadReport redirects to the archived PDF of a lead.
// GET /admin/leads/{id}/report
func (h *AdminHandler) LeadReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	link, err := h.reports.ArchiveLink(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

// Jobs returns job counts by status.
// GET /admin/jobs
func (h *AdminHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EUNAVAILABLE, "admin.jobs", "worker is disabled"))
		return
	}

	counts, err := h.jobs.Stats(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "admin.jobs", "failed to count jobs"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": counts})
}

// Setup imports a catalog. The body is either a catalog document or an
// array of spreadsheet rows.
// POST /admin/setup
func (h *AdminHandler) Setup(w http.ResponseWriter, r *http.Request) {
	const op = "admin.setup"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSetupBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, msgRequestTooLarge))
			return
		}
		ErrorResponse(w, r, h.logger, domain.Invalid(op, msgInvalidJSON))
		return
	}

	doc, err := seed.Decode(body)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.importer.Import(r.Context(), doc)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.catalog.Invalidate(r.Context()); err != nil {
		// Entries expire on their own; the import itself succeeded.
		h.logger.Warn("failed to invalidate catalog cache", "error", err)
	}

	h.logger.Info("catalog imported",
		"categories", result.CategoriesUpserted,
		"automations", result.AutomationsUpserted,
	)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}
