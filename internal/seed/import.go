package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/google/uuid"
)

// TxBeginner starts transactions. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Importer writes catalog documents to the database.
type Importer struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(db TxBeginner, logger *slog.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

// Import upserts every category by slug and every active automation by lp
// in one transaction. Inactive entries are left untouched.
func (i *Importer) Import(ctx context.Context, doc *Document) (*domain.ImportResult, error) {
	const op = "seed.import"

	if err := doc.check(); err != nil {
		return nil, domain.Invalid(op, err.Error())
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.FromContext(err, op, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := repository.New(tx)
	result := &domain.ImportResult{}

	categoryIDs := make(map[string]uuid.UUID, len(doc.Categories))
	for _, c := range doc.Categories {
		row, err := q.UpsertCategory(ctx, repository.UpsertCategoryParams{
			Name:         c.Name,
			Slug:         c.Slug,
			Icon:         domain.ToNullString(c.Icon),
			DisplayOrder: int32(c.DisplayOrder),
		})
		if err != nil {
			return nil, repository.MapError(err, op, "category", c.Slug)
		}
		categoryIDs[c.Slug] = row.ID
		result.CategoriesUpserted++
	}

	for _, a := range doc.Automations {
		if !a.Active() {
			continue
		}
		percent := sql.NullInt32{}
		if a.AutomationPercent != nil {
			percent = sql.NullInt32{Int32: int32(*a.AutomationPercent), Valid: true}
		}
		_, err := q.UpsertAutomation(ctx, repository.UpsertAutomationParams{
			Lp:                   int32(a.Lp),
			Name:                 a.Name,
			CategoryID:           categoryIDs[a.CategorySlug],
			Integrations:         domain.ToNullString(a.Integrations),
			DescriptionTechnical: domain.ToNullString(a.DescriptionTechnical),
			DescriptionMarketing: domain.ToNullString(a.DescriptionMarketing),
			SavingsMin:           a.SavingsMin,
			SavingsMax:           a.SavingsMax,
			AutomationPercent:    percent,
		})
		if err != nil {
			return nil, repository.MapError(err, op, "automation", fmt.Sprint(a.Lp))
		}
		result.AutomationsUpserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.FromContext(err, op, "failed to commit catalog import")
	}

	i.logger.Info("catalog imported",
		"categories", result.CategoriesUpserted,
		"automations", result.AutomationsUpserted,
	)
	return result, nil
}
