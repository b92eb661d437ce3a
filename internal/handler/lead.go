package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/validation"
)

// LeadHandler handles lead submission from the calculator.
type LeadHandler struct {
	leads     service.LeadService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads service.LeadService, validator *validation.Validator, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:     leads,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes registers lead routes. cors wraps every public route and
// limit guards the submission itself.
func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux, cors, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/leads", cors(limit(http.HandlerFunc(h.Create))))
	mux.Handle("OPTIONS /api/leads", cors(http.HandlerFunc(NoContent)))
}

// Create persists a lead.
// POST /api/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "lead.submit"

	var req LeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.validator.Struct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.Create(r.Context(), req.params(ClientIP(r)))
	if err != nil {
		errorResponseWithMessage(w, r, h.logger, err, msgLeadSaveFailed)
		return
	}

	writeJSON(w, http.StatusCreated, LeadCreatedResponse{
		Success: true,
		LeadID:  lead.ID,
		LeadData: SendReportRequest{
			LeadID:         lead.ID,
			FirstName:      lead.FirstName,
			Email:          lead.Email,
			Phone:          lead.Phone,
			Company:        lead.Company,
			SavingsRequest: req.SavingsRequest,
		},
	})
}

// NoContent answers CORS preflight requests that reach the mux.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
