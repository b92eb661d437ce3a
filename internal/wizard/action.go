package wizard

import (
	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// ActionType identifies a wizard command.
type ActionType string

const (
	ActionSetStep                ActionType = "SET_STEP"
	ActionNextStep               ActionType = "NEXT_STEP"
	ActionPrevStep               ActionType = "PREV_STEP"
	ActionSetEmbedMode           ActionType = "SET_EMBED_MODE"
	ActionToggleCategory         ActionType = "TOGGLE_CATEGORY"
	ActionSetCategories          ActionType = "SET_CATEGORIES"
	ActionToggleAutomation       ActionType = "TOGGLE_AUTOMATION"
	ActionSelectAllInCategory    ActionType = "SELECT_ALL_IN_CATEGORY"
	ActionDeselectAllInCategory  ActionType = "DESELECT_ALL_IN_CATEGORY"
	ActionSetCurrency            ActionType = "SET_CURRENCY"
	ActionSetHourlyRate          ActionType = "SET_HOURLY_RATE"
	ActionUpdateAutomationConfig ActionType = "UPDATE_AUTOMATION_CONFIG"
	ActionSetContactField        ActionType = "SET_CONTACT_FIELD"
	ActionSetConsent             ActionType = "SET_CONSENT"
	ActionCacheCategories        ActionType = "CACHE_CATEGORIES"
	ActionCacheAutomations       ActionType = "CACHE_AUTOMATIONS"
	ActionReset                  ActionType = "RESET"
)

// Action is a command understood by Reduce.
type Action interface {
	Type() ActionType
}

// ContactField names a contact field of step 4.
type ContactField string

const (
	FieldFirstName ContactField = "firstName"
	FieldEmail     ContactField = "email"
	FieldPhone     ContactField = "phone"
	FieldCompany   ContactField = "company"
)

// ConsentKind names one of the two consents of step 4.
type ConsentKind string

const (
	ConsentDataProcessing ConsentKind = "rodoConsent"
	ConsentMarketing      ConsentKind = "marketingConsent"
)

// SetStep jumps to a step, clamped to 1..5. Gating is not checked.
type SetStep struct{ Step int }

// NextStep advances one step, clamped.
type NextStep struct{}

// PrevStep goes back one step, clamped.
type PrevStep struct{}

// SetEmbedMode records whether the wizard runs inside a host page frame.
type SetEmbedMode struct{ Embed bool }

// ToggleCategory selects or deselects a category. Deselecting cascades to
// every selected automation the automation cache assigns to the category.
type ToggleCategory struct{ CategoryID uuid.UUID }

// SetCategories replaces the category selection. Categories that drop out
// cascade like ToggleCategory.
type SetCategories struct{ CategoryIDs []uuid.UUID }

// ToggleAutomation selects or deselects an automation. Automation may be nil
// when catalog data is unavailable, in which case fallback defaults apply.
type ToggleAutomation struct {
	AutomationID uuid.UUID
	Automation   *domain.Automation
}

// SelectAllInCategory selects every given automation and the category itself.
type SelectAllInCategory struct {
	CategoryID  uuid.UUID
	Automations []domain.Automation
}

// DeselectAllInCategory deselects the automations the automation cache
// assigns to the category. The category itself stays selected.
type DeselectAllInCategory struct{ CategoryID uuid.UUID }

// SetCurrency switches currency and resets the hourly rate to its preset.
type SetCurrency struct{ Currency domain.Currency }

// SetHourlyRate overwrites the hourly rate. No clamping is applied.
type SetHourlyRate struct{ Rate float64 }

// UpdateAutomationConfig merges a patch into the config of a selected
// automation. It does nothing for an automation that is not selected.
type UpdateAutomationConfig struct {
	AutomationID uuid.UUID
	Patch        ConfigPatch
}

// SetContactField overwrites one contact field.
type SetContactField struct {
	Field ContactField
	Value string
}

// SetConsent overwrites one consent flag.
type SetConsent struct {
	Kind  ConsentKind
	Value bool
}

// CacheCategories stores the fetched category list.
type CacheCategories struct{ Categories []domain.Category }

// CacheAutomations stores the fetched automations of one category.
type CacheAutomations struct {
	CategoryID  uuid.UUID
	Automations []domain.Automation
}

// Reset restores the initial state.
type Reset struct{}

func (SetStep) Type() ActionType                { return ActionSetStep }
func (NextStep) Type() ActionType               { return ActionNextStep }
func (PrevStep) Type() ActionType               { return ActionPrevStep }
func (SetEmbedMode) Type() ActionType           { return ActionSetEmbedMode }
func (ToggleCategory) Type() ActionType         { return ActionToggleCategory }
func (SetCategories) Type() ActionType          { return ActionSetCategories }
func (ToggleAutomation) Type() ActionType       { return ActionToggleAutomation }
func (SelectAllInCategory) Type() ActionType    { return ActionSelectAllInCategory }
func (DeselectAllInCategory) Type() ActionType  { return ActionDeselectAllInCategory }
func (SetCurrency) Type() ActionType            { return ActionSetCurrency }
func (SetHourlyRate) Type() ActionType          { return ActionSetHourlyRate }
func (UpdateAutomationConfig) Type() ActionType { return ActionUpdateAutomationConfig }
func (SetContactField) Type() ActionType        { return ActionSetContactField }
func (SetConsent) Type() ActionType             { return ActionSetConsent }
func (CacheCategories) Type() ActionType        { return ActionCacheCategories }
func (CacheAutomations) Type() ActionType       { return ActionCacheAutomations }
func (Reset) Type() ActionType                  { return ActionReset }
