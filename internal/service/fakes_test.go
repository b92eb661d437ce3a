package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Lead queries
// =============================================================================

type fakeLeadQueries struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	created []repository.CreateLeadParams
	err     error
}

func newFakeLeadQueries() *fakeLeadQueries {
	return &fakeLeadQueries{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeLeadQueries) CreateLead(_ context.Context, arg repository.CreateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return repository.Lead{}, f.err
	}
	f.created = append(f.created, arg)
	now := time.Now()
	row := repository.Lead{
		ID:                  uuid.New(),
		FirstName:           arg.FirstName,
		Email:               arg.Email,
		Phone:               arg.Phone,
		Company:             arg.Company,
		Currency:            arg.Currency,
		HourlyRate:          arg.HourlyRate,
		SelectedAutomations: arg.SelectedAutomations,
		TotalWeekly:         arg.TotalWeekly,
		TotalMonthly:        arg.TotalMonthly,
		TotalYearly:         arg.TotalYearly,
		MarketingConsent:    arg.MarketingConsent,
		SubmitterIp:         arg.SubmitterIp,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.leads[row.ID] = row
	return row, nil
}

func (f *fakeLeadQueries) GetLead(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return repository.Lead{}, f.err
	}
	row, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeLeadQueries) ListLeads(_ context.Context, arg repository.ListLeadsParams) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, row := range f.leads {
		if arg.UnsentOnly && row.ReportSentAt.Valid {
			continue
		}
		out = append(out, row)
	}
	if int(arg.Limit) < len(out) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (f *fakeLeadQueries) CountLeads(_ context.Context, unsentOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.leads {
		if unsentOnly && row.ReportSentAt.Valid {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeLeadQueries) MarkLeadReportSent(_ context.Context, id uuid.UUID, sentAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.leads[id]
	if !ok || row.ReportSentAt.Valid {
		return 0, nil
	}
	row.ReportSentAt = sql.NullTime{Time: sentAt, Valid: true}
	f.leads[id] = row
	return 1, nil
}

func (f *fakeLeadQueries) SetLeadReportStorageKey(_ context.Context, id uuid.UUID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.leads[id]
	if !ok {
		return nil
	}
	row.ReportStorageKey = sql.NullString{String: key, Valid: true}
	f.leads[id] = row
	return nil
}

func (f *fakeLeadQueries) ListUnsentLeadsWithoutJob(_ context.Context, cutoff time.Time, _ string, limit int32) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, row := range f.leads {
		if !row.ReportSentAt.Valid && row.CreatedAt.Before(cutoff) {
			out = append(out, row)
		}
	}
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// Email
// =============================================================================

type fakeEmailService struct {
	mu        sync.Mutex
	clientErr error
	adminErr  error
	clients   []*domain.ReportData
	admins    []*domain.ReportData
}

func (f *fakeEmailService) SendClientReport(ctx context.Context, data *domain.ReportData) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("send without deadline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, data)
	return f.clientErr
}

func (f *fakeEmailService) SendAdminNotification(ctx context.Context, data *domain.ReportData) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("send without deadline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins = append(f.admins, data)
	return f.adminErr
}

// =============================================================================
// Queue
// =============================================================================

type fakeQueue struct {
	mu   sync.Mutex
	jobs []repository.EnqueueJobParams
	err  error
}

func (f *fakeQueue) EnqueueJob(_ context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return repository.Job{}, f.err
	}
	f.jobs = append(f.jobs, arg)
	return repository.Job{ID: uuid.New(), JobType: arg.JobType, Payload: arg.Payload}, nil
}

func (f *fakeQueue) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j.JobType)
	}
	return out
}

// =============================================================================
// Catalog queries
// =============================================================================

type fakeCatalogQueries struct {
	categories     []repository.Category
	automations    []repository.AutomationRow
	categoryCalls  int
	automationSets [][]uuid.UUID
}

func (f *fakeCatalogQueries) ListActiveCategories(_ context.Context, limit int32) ([]repository.Category, error) {
	f.categoryCalls++
	out := f.categories
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalogQueries) ListActiveAutomationsByCategories(_ context.Context, categoryIDs []uuid.UUID) ([]repository.AutomationRow, error) {
	f.automationSets = append(f.automationSets, categoryIDs)
	var out []repository.AutomationRow
	for _, a := range f.automations {
		for _, id := range categoryIDs {
			if a.CategoryID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeCatalogQueries) GetActiveAutomation(_ context.Context, id uuid.UUID) (repository.AutomationRow, error) {
	for _, a := range f.automations {
		if a.ID == id {
			return a, nil
		}
	}
	return repository.AutomationRow{}, sql.ErrNoRows
}

func automationRow(categoryID uuid.UUID, categoryName string, lp int32, name string, min, max float64, percent sql.NullInt32) repository.AutomationRow {
	return repository.AutomationRow{
		Automation: repository.Automation{
			ID:                uuid.New(),
			Lp:                lp,
			Name:              name,
			CategoryID:        categoryID,
			SavingsMin:        min,
			SavingsMax:        max,
			AutomationPercent: percent,
			IsActive:          true,
		},
		CategoryName: categoryName,
	}
}
