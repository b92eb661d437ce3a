// Package service contains the business logic layer.
//
// This file implements the read side of the automation catalog.
package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// CatalogService serves the categories and automations the wizard offers.
//
// It also satisfies wizard.CatalogLookup so session commands can resolve
// catalog data through the same cache.
type CatalogService interface {
	// ListCategories returns the active categories ordered by display order.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// ListAutomations returns the active automations of the given categories,
	// grouped in the order the categories are given and ordered by lp within
	// a category. Unknown or inactive categories contribute nothing.
	ListAutomations(ctx context.Context, categoryIDs []uuid.UUID) ([]domain.Automation, error)

	// Automation returns one active automation.
	// Returns domain.ENOTFOUND if it does not exist or is inactive.
	Automation(ctx context.Context, id uuid.UUID) (*domain.Automation, error)

	// CategoryAutomations returns the active automations of one category.
	CategoryAutomations(ctx context.Context, categoryID uuid.UUID) ([]domain.Automation, error)

	// Invalidate drops every cached catalog entry.
	Invalidate(ctx context.Context) error
}

// catalogQueries is the part of repository.Queries the catalog service uses.
type catalogQueries interface {
	ListActiveCategories(ctx context.Context, limit int32) ([]repository.Category, error)
	ListActiveAutomationsByCategories(ctx context.Context, categoryIDs []uuid.UUID) ([]repository.AutomationRow, error)
	GetActiveAutomation(ctx context.Context, id uuid.UUID) (repository.AutomationRow, error)
}

// catalogCache is the part of cache.JSON the catalog service uses.
type catalogCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Flush(ctx context.Context) (int, error)
}

// maxCategories bounds the category list.
const maxCategories = 100

const (
	categoriesCacheKey        = "categories"
	automationsCacheKeyPrefix = "automations:"
)

// =============================================================================
// Implementation
// =============================================================================

type catalogService struct {
	queries catalogQueries
	cache   catalogCache // nil disables caching
	logger  *slog.Logger
}

// NewCatalogService creates a new CatalogService. A nil cache disables caching.
func NewCatalogService(queries catalogQueries, cache catalogCache, logger *slog.Logger) CatalogService {
	return &catalogService{
		queries: queries,
		cache:   cache,
		logger:  logger,
	}
}

// ListCategories returns the active categories.
func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "catalog.list_categories"

	var categories []domain.Category
	if s.cacheGet(ctx, categoriesCacheKey, &categories) {
		return categories, nil
	}

	rows, err := s.queries.ListActiveCategories(ctx, maxCategories)
	if err != nil {
		return nil, repository.MapError(err, op, "category", "")
	}

	categories = make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, rowToCategory(row))
	}

	s.cacheSet(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// ListAutomations returns the active automations of the given categories.
func (s *catalogService) ListAutomations(ctx context.Context, categoryIDs []uuid.UUID) ([]domain.Automation, error) {
	const op = "catalog.list_automations"

	ids := uniqueIDs(categoryIDs)
	if len(ids) == 0 {
		return []domain.Automation{}, nil
	}

	byCategory := make(map[uuid.UUID][]domain.Automation, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		var list []domain.Automation
		if s.cacheGet(ctx, automationsCacheKeyPrefix+id.String(), &list) {
			byCategory[id] = list
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		rows, err := s.queries.ListActiveAutomationsByCategories(ctx, missing)
		if err != nil {
			return nil, repository.MapError(err, op, "automation", "")
		}

		fetched := make(map[uuid.UUID][]domain.Automation, len(missing))
		for _, row := range rows {
			fetched[row.CategoryID] = append(fetched[row.CategoryID], rowToAutomation(row))
		}
		for _, id := range missing {
			list := fetched[id]
			if list == nil {
				list = []domain.Automation{}
			}
			byCategory[id] = list
			s.cacheSet(ctx, automationsCacheKeyPrefix+id.String(), list)
		}
	}

	out := []domain.Automation{}
	for _, id := range ids {
		out = append(out, byCategory[id]...)
	}
	return out, nil
}

// CategoryAutomations returns the active automations of one category.
func (s *catalogService) CategoryAutomations(ctx context.Context, categoryID uuid.UUID) ([]domain.Automation, error) {
	return s.ListAutomations(ctx, []uuid.UUID{categoryID})
}

// Automation returns one active automation.
func (s *catalogService) Automation(ctx context.Context, id uuid.UUID) (*domain.Automation, error) {
	const op = "catalog.get_automation"

	row, err := s.queries.GetActiveAutomation(ctx, id)
	if err != nil {
		return nil, repository.MapError(err, op, "automation", id.String())
	}

	a := rowToAutomation(row)
	return &a, nil
}

// Invalidate drops every cached catalog entry.
func (s *catalogService) Invalidate(ctx context.Context) error {
	const op = "catalog.invalidate"

	if s.cache == nil {
		return nil
	}
	n, err := s.cache.Flush(ctx)
	if err != nil {
		return domain.FromContext(err, op, "failed to flush catalog cache")
	}
	s.logger.Info("catalog cache invalidated", "keys", n)
	return nil
}

// cacheGet reports a hit. Cache errors are logged and treated as a miss.
func (s *catalogService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	switch {
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		s.logger.Warn("catalog cache read failed", "key", key, "error", err)
		return false
	case hit:
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
	default:
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}
	return hit
}

func (s *catalogService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

// =============================================================================
// Conversion
// =============================================================================

func rowToCategory(row repository.Category) domain.Category {
	return domain.Category{
		ID:           row.ID,
		Name:         row.Name,
		Slug:         row.Slug,
		Icon:         domain.NullStringValue(row.Icon),
		Description:  domain.NullStringValue(row.Description),
		DisplayOrder: int(row.DisplayOrder),
		Active:       row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func rowToAutomation(row repository.AutomationRow) domain.Automation {
	percent := domain.DefaultAutomationPercent
	if row.AutomationPercent.Valid {
		percent = int(row.AutomationPercent.Int32)
	}

	return domain.Automation{
		ID:                   row.ID,
		Lp:                   int(row.Lp),
		Name:                 row.Name,
		CategoryID:           row.CategoryID,
		CategoryName:         row.CategoryName,
		CategorySlug:         row.CategorySlug,
		Integrations:         domain.NullStringValue(row.Integrations),
		TechnicalDescription: domain.NullStringValue(row.DescriptionTechnical),
		MarketingDescription: domain.NullStringValue(row.DescriptionMarketing),
		SavingsMin:           row.SavingsMin,
		SavingsMax:           row.SavingsMax,
		AutomationPercent:    percent,
		Active:               row.IsActive,
	}
}

// uniqueIDs drops nil and repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

var _ wizard.CatalogLookup = (*catalogService)(nil)
