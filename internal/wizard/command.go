package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// Command is the wire form of a client-issued action.
//
// Cache actions and SET_EMBED_MODE are issued by the server only and are
// rejected here.
type Command struct {
	Type         ActionType      `json:"type"`
	Step         *int            `json:"step,omitempty"`
	CategoryID   *uuid.UUID      `json:"categoryId,omitempty"`
	CategoryIDs  []uuid.UUID     `json:"categoryIds,omitempty"`
	AutomationID *uuid.UUID      `json:"automationId,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	HourlyRate   *float64        `json:"hourlyRate,omitempty"`
	Config       *ConfigPatch    `json:"config,omitempty"`
	Field        string          `json:"field,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
}

// CatalogLookup resolves catalog data a command needs.
type CatalogLookup interface {
	// Automation returns one active automation.
	Automation(ctx context.Context, id uuid.UUID) (*domain.Automation, error)

	// CategoryAutomations returns the active automations of a category.
	CategoryAutomations(ctx context.Context, categoryID uuid.UUID) ([]domain.Automation, error)
}

// Resolve converts c into an Action, using lookup for commands that carry
// catalog data. It returns the actions to dispatch in order; catalog data
// fetched on the way is cached first so later category cascades see it.
func (c Command) Resolve(ctx context.Context, s State, lookup CatalogLookup) ([]Action, error) {
	const op = "wizard.resolve"

	switch c.Type {
	case ActionSetStep:
		if c.Step == nil {
			return nil, domain.Invalid(op, "step is required")
		}
		return []Action{SetStep{Step: *c.Step}}, nil

	case ActionNextStep:
		return []Action{NextStep{}}, nil

	case ActionPrevStep:
		return []Action{PrevStep{}}, nil

	case ActionToggleCategory:
		if c.CategoryID == nil {
			return nil, domain.Invalid(op, "categoryId is required")
		}
		return []Action{ToggleCategory{CategoryID: *c.CategoryID}}, nil

	case ActionSetCategories:
		return []Action{SetCategories{CategoryIDs: c.CategoryIDs}}, nil

	case ActionToggleAutomation:
		if c.AutomationID == nil {
			return nil, domain.Invalid(op, "automationId is required")
		}
		if s.IsAutomationSelected(*c.AutomationID) {
			return []Action{ToggleAutomation{AutomationID: *c.AutomationID}}, nil
		}
		var actions []Action
		automation, err := lookup.Automation(ctx, *c.AutomationID)
		if err != nil {
			return nil, err
		}
		// Selected automations always belong to a selected category.
		if !s.IsCategorySelected(automation.CategoryID) {
			return nil, domain.Invalid(op, "category is not selected")
		}
		if _, cached := s.AutomationsCache[automation.CategoryID]; !cached {
			list, err := lookup.CategoryAutomations(ctx, automation.CategoryID)
			if err != nil {
				return nil, err
			}
			actions = append(actions, CacheAutomations{CategoryID: automation.CategoryID, Automations: list})
		}
		return append(actions, ToggleAutomation{AutomationID: automation.ID, Automation: automation}), nil

	case ActionSelectAllInCategory:
		if c.CategoryID == nil {
			return nil, domain.Invalid(op, "categoryId is required")
		}
		list, err := lookup.CategoryAutomations(ctx, *c.CategoryID)
		if err != nil {
			return nil, err
		}
		return []Action{
			CacheAutomations{CategoryID: *c.CategoryID, Automations: list},
			SelectAllInCategory{CategoryID: *c.CategoryID, Automations: list},
		}, nil

	case ActionDeselectAllInCategory:
		if c.CategoryID == nil {
			return nil, domain.Invalid(op, "categoryId is required")
		}
		return []Action{DeselectAllInCategory{CategoryID: *c.CategoryID}}, nil

	case ActionSetCurrency:
		cur, ok := domain.ParseCurrency(c.Currency)
		if !ok {
			return nil, domain.Invalid(op, fmt.Sprintf("unsupported currency %q", c.Currency))
		}
		return []Action{SetCurrency{Currency: cur}}, nil

	case ActionSetHourlyRate:
		if c.HourlyRate == nil {
			return nil, domain.Invalid(op, "hourlyRate is required")
		}
		return []Action{SetHourlyRate{Rate: *c.HourlyRate}}, nil

	case ActionUpdateAutomationConfig:
		if c.AutomationID == nil || c.Config == nil {
			return nil, domain.Invalid(op, "automationId and config are required")
		}
		if !s.IsAutomationSelected(*c.AutomationID) {
			return nil, domain.Invalid(op, "automation is not selected")
		}
		return []Action{UpdateAutomationConfig{AutomationID: *c.AutomationID, Patch: *c.Config}}, nil

	case ActionSetContactField:
		field := ContactField(c.Field)
		switch field {
		case FieldFirstName, FieldEmail, FieldPhone, FieldCompany:
		default:
			return nil, domain.Invalid(op, fmt.Sprintf("unknown contact field %q", c.Field))
		}
		var v string
		if err := json.Unmarshal(c.Value, &v); err != nil {
			return nil, domain.Invalid(op, "value must be a string")
		}
		return []Action{SetContactField{Field: field, Value: v}}, nil

	case ActionSetConsent:
		kind := ConsentKind(c.Field)
		if kind != ConsentDataProcessing && kind != ConsentMarketing {
			return nil, domain.Invalid(op, fmt.Sprintf("unknown consent %q", c.Field))
		}
		var v bool
		if err := json.Unmarshal(c.Value, &v); err != nil {
			return nil, domain.Invalid(op, "value must be a boolean")
		}
		return []Action{SetConsent{Kind: kind, Value: v}}, nil

	case ActionReset:
		return []Action{Reset{}}, nil
	}

	return nil, domain.Invalid(op, fmt.Sprintf("unsupported command %q", c.Type))
}
