package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/DukeRupert/ordoflow/internal/session"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWizard(t *testing.T) (WizardService, *fakeCatalogQueries) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	finance, hr := uuid.New(), uuid.New()
	q := &fakeCatalogQueries{
		categories: []repository.Category{
			{ID: finance, Name: "Finanse", Slug: "finanse", DisplayOrder: 1, IsActive: true},
			{ID: hr, Name: "HR", Slug: "hr", DisplayOrder: 2, IsActive: true},
		},
		automations: []repository.AutomationRow{
			automationRow(finance, "Finanse", 1, "Faktury", 8, 12, sql.NullInt32{Int32: 80, Valid: true}),
			automationRow(finance, "Finanse", 2, "Raporty", 2, 4, sql.NullInt32{}),
			automationRow(hr, "HR", 3, "Onboarding", 4, 6, sql.NullInt32{}),
		},
	}

	catalog := NewCatalogService(q, nil, testLogger())
	return NewWizardService(session.NewStore(client, 0), catalog, testLogger()), q
}

func TestWizardService_Create(t *testing.T) {
	svc, _ := setupWizard(t)

	v, err := svc.Create(context.Background(), true)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, v.SessionID)
	assert.Equal(t, wizard.StepCategories, v.State.Step)
	assert.True(t, v.State.Embed)
	require.Len(t, v.State.CategoriesCache, 2)
	assert.Equal(t, "Finanse", v.State.CategoriesCache[0].Name)
	require.Len(t, v.Gates, 5)
	assert.True(t, v.Gates[0].CanProceed)
	assert.False(t, v.Gates[1].CanProceed)
	assert.Equal(t, wizard.MsgSelectCategory, v.Gates[1].Message)
}

func TestWizardService_Get_NotFound(t *testing.T) {
	svc, _ := setupWizard(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestWizardService_Dispatch_Flow(t *testing.T) {
	svc, q := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, false)
	require.NoError(t, err)
	id := v.SessionID

	categoryID := q.categories[0].ID
	v, err = svc.Dispatch(ctx, id, wizard.Command{Type: wizard.ActionToggleCategory, CategoryID: &categoryID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{categoryID}, v.State.SelectedCategoryIDs)

	v, err = svc.Dispatch(ctx, id, wizard.Command{Type: wizard.ActionNextStep})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepAutomations, v.State.Step)

	automationID := q.automations[0].ID
	v, err = svc.Dispatch(ctx, id, wizard.Command{Type: wizard.ActionToggleAutomation, AutomationID: &automationID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{automationID}, v.State.SelectedAutomationIDs)
	assert.Len(t, v.State.AutomationsCache[categoryID], 2, "category automations cached on first toggle")

	cfg, ok := v.State.Config(automationID)
	require.True(t, ok)
	assert.Equal(t, 80, cfg.AutomationPercent())
	assert.Positive(t, v.Savings.Total.Weekly)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, v.State.SelectedAutomationIDs, got.State.SelectedAutomationIDs)
}

func TestWizardService_Dispatch_BlocksForwardMove(t *testing.T) {
	svc, _ := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, false)
	require.NoError(t, err)

	step := int(wizard.StepSummary)
	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionSetStep, Step: &step})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, wizard.MsgSelectCategory, verr.Fields["step"])

	got, err := svc.Get(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCategories, got.State.Step, "rejected command leaves the session untouched")
}

func TestWizardService_Dispatch_Invalid(t *testing.T) {
	svc, _ := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, false)
	require.NoError(t, err)

	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionCacheCategories})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	missing := uuid.New()
	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionToggleAutomation, AutomationID: &missing})
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestWizardService_Dispatch_AutomationOutsideSelectedCategories(t *testing.T) {
	svc, q := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, false)
	require.NoError(t, err)

	finance := q.categories[0].ID
	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionToggleCategory, CategoryID: &finance})
	require.NoError(t, err)

	onboarding := q.automations[2].ID
	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionToggleAutomation, AutomationID: &onboarding})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	got, err := svc.Get(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.State.SelectedAutomationIDs)
	assert.Equal(t, []uuid.UUID{finance}, got.State.SelectedCategoryIDs)
	assert.Zero(t, got.Savings.Total.Weekly)
}

func TestWizardService_Dispatch_ResetKeepsEmbed(t *testing.T) {
	svc, q := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, true)
	require.NoError(t, err)

	categoryID := q.categories[0].ID
	_, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionToggleCategory, CategoryID: &categoryID})
	require.NoError(t, err)

	v, err = svc.Dispatch(ctx, v.SessionID, wizard.Command{Type: wizard.ActionReset})
	require.NoError(t, err)
	assert.True(t, v.State.Embed)
	assert.Empty(t, v.State.SelectedCategoryIDs)
	assert.Equal(t, wizard.StepCategories, v.State.Step)
}

func TestWizardService_Delete(t *testing.T) {
	svc, _ := setupWizard(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, false)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, v.SessionID))

	_, err = svc.Get(ctx, v.SessionID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
