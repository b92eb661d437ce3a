// Package wizard implements the five-step calculator wizard as a pure
// state-transition function plus a store that owns one state value.
//
// The reducer never fails. Commands that make no sense for the current state
// are no-ops, and gating is exposed as read-only queries that callers consult
// before moving forward.
package wizard

import (
	"encoding/json"
	"slices"

	"github.com/DukeRupert/ordoflow/internal/calculator"
	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// Step is a wizard stage, 1 through 5.
type Step int

const (
	StepCategories  Step = 1
	StepAutomations Step = 2
	StepConfig      Step = 3
	StepContact     Step = 4
	StepSummary     Step = 5
)

// clampStep keeps n within [StepCategories, StepSummary].
func clampStep(n int) Step {
	if n < int(StepCategories) {
		return StepCategories
	}
	if n > int(StepSummary) {
		return StepSummary
	}
	return Step(n)
}

// =============================================================================
// Automation Config
// =============================================================================

// AutomationConfig holds the user-adjustable parameters of a selected automation.
//
// Values can only be created by selecting an automation, so a config never
// exists for an automation that is not selected.
type AutomationConfig struct {
	hoursPerWeek      float64
	automationPercent int
}

// HoursPerWeek returns the hours the user spends on the process each week.
func (c AutomationConfig) HoursPerWeek() float64 { return c.hoursPerWeek }

// AutomationPercent returns the share of the work that gets automated.
func (c AutomationConfig) AutomationPercent() int { return c.automationPercent }

// Valid reports whether the config passes the step 4 gate.
func (c AutomationConfig) Valid() bool {
	return c.hoursPerWeek > 0 &&
		c.automationPercent >= domain.MinAutomationPercent &&
		c.automationPercent <= domain.MaxAutomationPercent
}

type automationConfigJSON struct {
	HoursPerWeek      float64 `json:"hoursPerWeek"`
	AutomationPercent int     `json:"automationPercent"`
}

// MarshalJSON implements json.Marshaler.
func (c AutomationConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(automationConfigJSON{
		HoursPerWeek:      c.hoursPerWeek,
		AutomationPercent: c.automationPercent,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It is used when a persisted
// state is loaded; State.UnmarshalJSON drops configs for unselected ids.
func (c *AutomationConfig) UnmarshalJSON(data []byte) error {
	var v automationConfigJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.hoursPerWeek = v.HoursPerWeek
	c.automationPercent = v.AutomationPercent
	return nil
}

// defaultConfig builds the config a freshly selected automation starts with.
func defaultConfig(a *domain.Automation) AutomationConfig {
	if a == nil {
		return AutomationConfig{
			hoursPerWeek:      domain.DefaultHoursPerWeek,
			automationPercent: domain.DefaultAutomationPercent,
		}
	}
	return AutomationConfig{
		hoursPerWeek:      calculator.DefaultHours(a.SavingsMin, a.SavingsMax),
		automationPercent: a.AutomationPercent,
	}
}

// ConfigPatch carries the fields of an UpdateAutomationConfig command.
// Nil fields are left untouched.
type ConfigPatch struct {
	HoursPerWeek      *float64 `json:"hoursPerWeek,omitempty"`
	AutomationPercent *int     `json:"automationPercent,omitempty"`
}

func (c AutomationConfig) merge(p ConfigPatch) AutomationConfig {
	if p.HoursPerWeek != nil {
		c.hoursPerWeek = *p.HoursPerWeek
	}
	if p.AutomationPercent != nil {
		c.automationPercent = *p.AutomationPercent
	}
	return c
}

// =============================================================================
// State
// =============================================================================

// State is the wizard aggregate.
type State struct {
	Step                  Step                              `json:"currentStep"`
	Embed                 bool                              `json:"isEmbedMode"`
	SelectedCategoryIDs   []uuid.UUID                       `json:"selectedCategoryIds"`
	SelectedAutomationIDs []uuid.UUID                       `json:"selectedAutomationIds"`
	Currency              domain.Currency                   `json:"currency"`
	HourlyRate            float64                           `json:"hourlyRate"`
	AutomationConfigs     map[uuid.UUID]AutomationConfig    `json:"automationConfigs"`
	Contact               domain.Contact                    `json:"contact"`
	DataProcessingConsent bool                              `json:"rodoConsent"`
	MarketingConsent      bool                              `json:"marketingConsent"`
	CategoriesCache       []domain.Category                 `json:"categoriesCache"`
	AutomationsCache      map[uuid.UUID][]domain.Automation `json:"automationsCache"`
}

// Initial returns the state a new wizard starts in.
func Initial() State {
	return State{
		Step:                  StepCategories,
		SelectedCategoryIDs:   []uuid.UUID{},
		SelectedAutomationIDs: []uuid.UUID{},
		Currency:              domain.DefaultCurrency,
		HourlyRate:            domain.DefaultCurrency.DefaultHourlyRate(),
		AutomationConfigs:     map[uuid.UUID]AutomationConfig{},
		AutomationsCache:      map[uuid.UUID][]domain.Automation{},
	}
}

// IsCategorySelected reports whether id is among the selected categories.
func (s State) IsCategorySelected(id uuid.UUID) bool {
	return slices.Contains(s.SelectedCategoryIDs, id)
}

// IsAutomationSelected reports whether id is among the selected automations.
func (s State) IsAutomationSelected(id uuid.UUID) bool {
	return slices.Contains(s.SelectedAutomationIDs, id)
}

// Config returns the config of a selected automation.
func (s State) Config(id uuid.UUID) (AutomationConfig, bool) {
	c, ok := s.AutomationConfigs[id]
	return c, ok
}

// CachedAutomation looks an automation up in the automation cache.
func (s State) CachedAutomation(id uuid.UUID) (domain.Automation, bool) {
	for _, list := range s.AutomationsCache {
		for _, a := range list {
			if a.ID == id {
				return a, true
			}
		}
	}
	return domain.Automation{}, false
}

// SelectedAutomations returns the cached catalog entries of the selected
// automations in selection order. Ids missing from the cache are skipped.
func (s State) SelectedAutomations() []domain.Automation {
	out := make([]domain.Automation, 0, len(s.SelectedAutomationIDs))
	for _, id := range s.SelectedAutomationIDs {
		if a, ok := s.CachedAutomation(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Savings derives the savings report from the selected automations.
func (s State) Savings() domain.SavingsReport {
	configs := make(map[uuid.UUID]calculator.Config, len(s.AutomationConfigs))
	for id, c := range s.AutomationConfigs {
		configs[id] = calculator.Config{
			HoursPerWeek:      c.hoursPerWeek,
			AutomationPercent: c.automationPercent,
		}
	}
	return calculator.Total(s.SelectedAutomations(), configs, s.HourlyRate, s.Currency)
}

// clone returns a deep copy so the reducer never aliases its input.
func (s State) clone() State {
	next := s
	next.SelectedCategoryIDs = slices.Clone(s.SelectedCategoryIDs)
	next.SelectedAutomationIDs = slices.Clone(s.SelectedAutomationIDs)

	next.AutomationConfigs = make(map[uuid.UUID]AutomationConfig, len(s.AutomationConfigs))
	for k, v := range s.AutomationConfigs {
		next.AutomationConfigs[k] = v
	}

	if s.CategoriesCache != nil {
		next.CategoriesCache = slices.Clone(s.CategoriesCache)
	}

	next.AutomationsCache = make(map[uuid.UUID][]domain.Automation, len(s.AutomationsCache))
	for k, v := range s.AutomationsCache {
		next.AutomationsCache[k] = slices.Clone(v)
	}

	if next.SelectedCategoryIDs == nil {
		next.SelectedCategoryIDs = []uuid.UUID{}
	}
	if next.SelectedAutomationIDs == nil {
		next.SelectedAutomationIDs = []uuid.UUID{}
	}
	return next
}

// UnmarshalJSON decodes a persisted state and restores the selection/config
// invariant: configs without a selection are dropped and selections without
// a config get the fallback config.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	st := State(p).clone()
	st.Step = clampStep(int(st.Step))
	if !st.Currency.IsValid() {
		st.Currency = domain.DefaultCurrency
	}

	for id := range st.AutomationConfigs {
		if !st.IsAutomationSelected(id) {
			delete(st.AutomationConfigs, id)
		}
	}
	for _, id := range st.SelectedAutomationIDs {
		if _, ok := st.AutomationConfigs[id]; !ok {
			st.AutomationConfigs[id] = defaultConfig(nil)
		}
	}

	*s = st
	return nil
}
