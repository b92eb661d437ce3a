package repository

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const categoryColumns = `id, name, slug, icon, description, display_order, is_active, created_at, updated_at`

func scanCategory(row interface{ Scan(...interface{}) error }) (Category, error) {
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Icon,
		&i.Description,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listActiveCategories = `SELECT ` + categoryColumns + `
FROM categories
WHERE is_active = true
ORDER BY display_order ASC, name ASC
LIMIT $1`

func (q *Queries) ListActiveCategories(ctx context.Context, limit int32) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listActiveCategories, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCategory = `INSERT INTO categories (name, slug, icon, description, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, true)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    icon = EXCLUDED.icon,
    description = EXCLUDED.description,
    display_order = EXCLUDED.display_order,
    is_active = true,
    updated_at = NOW()
RETURNING ` + categoryColumns

type UpsertCategoryParams struct {
	Name         string
	Slug         string
	Icon         sql.NullString
	Description  sql.NullString
	DisplayOrder int32
}

func (q *Queries) UpsertCategory(ctx context.Context, arg UpsertCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, upsertCategory,
		arg.Name,
		arg.Slug,
		arg.Icon,
		arg.Description,
		arg.DisplayOrder,
	)
	return scanCategory(row)
}

// =============================================================================
// Automations
// =============================================================================

// AutomationRow is an automation joined with its category.
type AutomationRow struct {
	Automation
	CategoryName string
	CategorySlug string
}

var automationSelectColumns = []string{
	"a.id", "a.lp", "a.name", "a.category_id", "a.integrations",
	"a.description_technical", "a.description_marketing",
	"a.savings_min", "a.savings_max", "a.automation_percent", "a.is_active",
	"a.created_at", "a.updated_at", "c.name", "c.slug",
}

func scanAutomationRow(row interface{ Scan(...interface{}) error }) (AutomationRow, error) {
	var i AutomationRow
	err := row.Scan(
		&i.ID,
		&i.Lp,
		&i.Name,
		&i.CategoryID,
		&i.Integrations,
		&i.DescriptionTechnical,
		&i.DescriptionMarketing,
		&i.SavingsMin,
		&i.SavingsMax,
		&i.AutomationPercent,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CategoryName,
		&i.CategorySlug,
	)
	return i, err
}

func activeAutomations() squirrel.SelectBuilder {
	return psql.Select(automationSelectColumns...).
		From("automations a").
		Join("categories c ON c.id = a.category_id").
		Where(squirrel.Eq{"a.is_active": true, "c.is_active": true})
}

// ListActiveAutomationsByCategories returns the active automations of the
// given categories ordered by lp.
func (q *Queries) ListActiveAutomationsByCategories(ctx context.Context, categoryIDs []uuid.UUID) ([]AutomationRow, error) {
	ids := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		ids[i] = id.String()
	}

	query, args, err := activeAutomations().
		Where("a.category_id = ANY(?::uuid[])", pq.Array(ids)).
		OrderBy("a.lp ASC", "a.name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AutomationRow{}
	for rows.Next() {
		i, err := scanAutomationRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetActiveAutomation returns one active automation.
func (q *Queries) GetActiveAutomation(ctx context.Context, id uuid.UUID) (AutomationRow, error) {
	query, args, err := activeAutomations().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return AutomationRow{}, err
	}
	return scanAutomationRow(q.db.QueryRowContext(ctx, query, args...))
}

const upsertAutomation = `INSERT INTO automations (
    lp, name, category_id, integrations, description_technical, description_marketing,
    savings_min, savings_max, automation_percent, is_active
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
ON CONFLICT (lp) DO UPDATE SET
    name = EXCLUDED.name,
    category_id = EXCLUDED.category_id,
    integrations = EXCLUDED.integrations,
    description_technical = EXCLUDED.description_technical,
    description_marketing = EXCLUDED.description_marketing,
    savings_min = EXCLUDED.savings_min,
    savings_max = EXCLUDED.savings_max,
    automation_percent = EXCLUDED.automation_percent,
    is_active = true,
    updated_at = NOW()
RETURNING id`

type UpsertAutomationParams struct {
	Lp                   int32
	Name                 string
	CategoryID           uuid.UUID
	Integrations         sql.NullString
	DescriptionTechnical sql.NullString
	DescriptionMarketing sql.NullString
	SavingsMin           float64
	SavingsMax           float64
	AutomationPercent    sql.NullInt32
}

func (q *Queries) UpsertAutomation(ctx context.Context, arg UpsertAutomationParams) (uuid.UUID, error) {
	row := q.db.QueryRowContext(ctx, upsertAutomation,
		arg.Lp,
		arg.Name,
		arg.CategoryID,
		arg.Integrations,
		arg.DescriptionTechnical,
		arg.DescriptionMarketing,
		arg.SavingsMin,
		arg.SavingsMax,
		arg.AutomationPercent,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
