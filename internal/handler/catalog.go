package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/google/uuid"
)

// CatalogHandler serves the automation catalog.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers catalog routes.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog/categories", h.Categories)
	mux.HandleFunc("GET /api/catalog/automations", h.Automations)
}

// Categories lists the active categories.
// GET /api/catalog/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Automations lists the active automations of the requested categories.
// GET /api/catalog/automations?category=<id>[,<id>...]
func (h *CatalogHandler) Automations(w http.ResponseWriter, r *http.Request) {
	const op = "catalog.automations"

	ids, err := parseIDList(r.URL.Query()["category"])
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "category", "Niepoprawny identyfikator kategorii"))
		return
	}

	automations, err := h.catalog.ListAutomations(r.Context(), ids)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automations": automations})
}

// parseIDList accepts repeated and comma-separated ids.
func parseIDList(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
