package handler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/seed"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
)

// =============================================================================
// Leads
// =============================================================================

type fakeLeads struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]*domain.Lead
	created []domain.CreateLeadParams
	listed  []domain.ListLeadsParams
	err     error
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{leads: make(map[uuid.UUID]*domain.Lead)}
}

func (f *fakeLeads) add(firstName string) *domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := &domain.Lead{
		ID:        uuid.New(),
		FirstName: firstName,
		Email:     "anna@example.com",
		Currency:  domain.CurrencyPLN,
		CreatedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeLeads) Create(_ context.Context, params domain.CreateLeadParams) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	lead := &domain.Lead{
		ID:                  uuid.New(),
		FirstName:           params.Contact.FirstName,
		Email:               params.Contact.Email,
		Phone:               params.Contact.Phone,
		Company:             params.Contact.Company,
		Currency:            params.Currency,
		HourlyRate:          params.HourlyRate,
		SelectedAutomations: params.SelectedAutomations,
		Total:               params.Total,
		SubmitterIP:         params.SubmitterIP,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	lead, ok := f.leads[id]
	if !ok {
		return nil, domain.NotFound("lead.get", "lead", id.String())
	}
	return lead, nil
}

func (f *fakeLeads) List(_ context.Context, params domain.ListLeadsParams) (*domain.ListLeadsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, params)
	result := &domain.ListLeadsResult{Limit: params.Limit, Offset: params.Offset}
	for _, lead := range f.leads {
		result.Leads = append(result.Leads, *lead)
	}
	result.TotalCount = int64(len(result.Leads))
	return result, nil
}

func (f *fakeLeads) MarkReportSent(context.Context, uuid.UUID, time.Time) (bool, error) {
	return true, nil
}

func (f *fakeLeads) SetReportStorageKey(context.Context, uuid.UUID, string) error {
	return nil
}

func (f *fakeLeads) ListUndelivered(context.Context, time.Time, string, int32) ([]domain.Lead, error) {
	return nil, nil
}

// =============================================================================
// Reports
// =============================================================================

type fakeReports struct {
	mu        sync.Mutex
	result    *service.DeliveryResult
	exportErr error
	sent      []*domain.ReportData
	exported  []*domain.ReportData
	links     map[uuid.UUID]string
}

func (f *fakeReports) Send(_ context.Context, data *domain.ReportData) *service.DeliveryResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	if f.result != nil {
		return f.result
	}
	return &service.DeliveryResult{
		Client: service.Delivery{Success: true},
		Admin:  service.Delivery{Success: true},
	}
}

func (f *fakeReports) Export(_ context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exportErr != nil {
		return 0, f.exportErr
	}
	f.exported = append(f.exported, data)
	data.GeneratedAt = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	n, err := io.WriteString(w, "%PDF-1.3 fake")
	return int64(n), err
}

func (f *fakeReports) Archive(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeReports) ArchiveLink(_ context.Context, leadID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[leadID]
	if !ok {
		return "", domain.NotFound("report.archive_link", "archived report", leadID.String())
	}
	return link, nil
}

func (f *fakeReports) DeliverClientReport(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

// =============================================================================
// Catalog
// =============================================================================

type fakeCatalog struct {
	categories  []domain.Category
	automations []domain.Automation
	requested   [][]uuid.UUID
	invalidated int
	err         error
}

func (f *fakeCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, f.err
}

func (f *fakeCatalog) ListAutomations(_ context.Context, ids []uuid.UUID) ([]domain.Automation, error) {
	f.requested = append(f.requested, ids)
	return f.automations, f.err
}

func (f *fakeCatalog) Automation(_ context.Context, id uuid.UUID) (*domain.Automation, error) {
	for i := range f.automations {
		if f.automations[i].ID == id {
			return &f.automations[i], nil
		}
	}
	return nil, domain.NotFound("catalog.get_automation", "automation", id.String())
}

func (f *fakeCatalog) CategoryAutomations(ctx context.Context, id uuid.UUID) ([]domain.Automation, error) {
	return f.ListAutomations(ctx, []uuid.UUID{id})
}

func (f *fakeCatalog) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

// =============================================================================
// Wizard
// =============================================================================

type fakeWizard struct {
	sessions map[uuid.UUID]*service.WizardView
	commands []wizard.Command
	embeds   []bool
	err      error
}

func newFakeWizard() *fakeWizard {
	return &fakeWizard{sessions: make(map[uuid.UUID]*service.WizardView)}
}

func (f *fakeWizard) Create(_ context.Context, embed bool) (*service.WizardView, error) {
	f.embeds = append(f.embeds, embed)
	state := wizard.Initial()
	state.Embed = embed
	v := &service.WizardView{SessionID: uuid.New(), State: state}
	f.sessions[v.SessionID] = v
	return v, nil
}

func (f *fakeWizard) Get(_ context.Context, id uuid.UUID) (*service.WizardView, error) {
	v, ok := f.sessions[id]
	if !ok {
		return nil, domain.NotFound("session.get", "session", id.String())
	}
	return v, nil
}

func (f *fakeWizard) Dispatch(_ context.Context, id uuid.UUID, cmd wizard.Command) (*service.WizardView, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.sessions[id]
	if !ok {
		return nil, domain.NotFound("session.get", "session", id.String())
	}
	f.commands = append(f.commands, cmd)
	return v, nil
}

func (f *fakeWizard) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.sessions, id)
	return nil
}

// =============================================================================
// Admin
// =============================================================================

type fakeImporter struct {
	docs []*seed.Document
	err  error
}

func (f *fakeImporter) Import(_ context.Context, doc *seed.Document) (*domain.ImportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return &domain.ImportResult{CategoriesUpserted: len(doc.Categories), AutomationsUpserted: len(doc.Automations)}, nil
}

type fakeJobStats map[string]int64

func (f fakeJobStats) Stats(context.Context) (map[string]int64, error) {
	return f, nil
}
