package wizard

import (
	"slices"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// Reduce returns the state that results from applying a to s.
// s is never modified. Unknown actions return an unchanged copy.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a := a.(type) {
	case SetStep:
		next.Step = clampStep(a.Step)

	case NextStep:
		next.Step = clampStep(int(next.Step) + 1)

	case PrevStep:
		next.Step = clampStep(int(next.Step) - 1)

	case SetEmbedMode:
		next.Embed = a.Embed

	case ToggleCategory:
		if next.IsCategorySelected(a.CategoryID) {
			next.SelectedCategoryIDs = remove(next.SelectedCategoryIDs, a.CategoryID)
			next.dropCategoryAutomations(a.CategoryID)
		} else {
			next.SelectedCategoryIDs = append(next.SelectedCategoryIDs, a.CategoryID)
		}

	case SetCategories:
		ids := dedupe(a.CategoryIDs)
		for _, id := range next.SelectedCategoryIDs {
			if !slices.Contains(ids, id) {
				next.dropCategoryAutomations(id)
			}
		}
		next.SelectedCategoryIDs = ids

	case ToggleAutomation:
		if next.IsAutomationSelected(a.AutomationID) {
			next.deselectAutomation(a.AutomationID)
		} else {
			next.SelectedAutomationIDs = append(next.SelectedAutomationIDs, a.AutomationID)
			next.AutomationConfigs[a.AutomationID] = defaultConfig(a.Automation)
		}

	case SelectAllInCategory:
		for i := range a.Automations {
			automation := a.Automations[i]
			if !next.IsAutomationSelected(automation.ID) {
				next.SelectedAutomationIDs = append(next.SelectedAutomationIDs, automation.ID)
			}
			if _, ok := next.AutomationConfigs[automation.ID]; !ok {
				next.AutomationConfigs[automation.ID] = defaultConfig(&automation)
			}
		}
		if !next.IsCategorySelected(a.CategoryID) {
			next.SelectedCategoryIDs = append(next.SelectedCategoryIDs, a.CategoryID)
		}

	case DeselectAllInCategory:
		next.dropCategoryAutomations(a.CategoryID)

	case SetCurrency:
		if a.Currency.IsValid() {
			next.Currency = a.Currency
			next.HourlyRate = a.Currency.DefaultHourlyRate()
		}

	case SetHourlyRate:
		next.HourlyRate = a.Rate

	case UpdateAutomationConfig:
		if cfg, ok := next.AutomationConfigs[a.AutomationID]; ok {
			next.AutomationConfigs[a.AutomationID] = cfg.merge(a.Patch)
		}

	case SetContactField:
		switch a.Field {
		case FieldFirstName:
			next.Contact.FirstName = a.Value
		case FieldEmail:
			next.Contact.Email = a.Value
		case FieldPhone:
			next.Contact.Phone = a.Value
		case FieldCompany:
			next.Contact.Company = a.Value
		}

	case SetConsent:
		switch a.Kind {
		case ConsentDataProcessing:
			next.DataProcessingConsent = a.Value
		case ConsentMarketing:
			next.MarketingConsent = a.Value
		}

	case CacheCategories:
		next.CategoriesCache = slices.Clone(a.Categories)
		if next.CategoriesCache == nil {
			next.CategoriesCache = []domain.Category{}
		}

	case CacheAutomations:
		next.AutomationsCache[a.CategoryID] = slices.Clone(a.Automations)

	case Reset:
		return Initial()
	}

	return next
}

// dropCategoryAutomations deselects every automation the cache assigns to
// categoryID. Selected automations missing from the cache are kept.
func (s *State) dropCategoryAutomations(categoryID uuid.UUID) {
	for _, list := range s.AutomationsCache {
		for _, a := range list {
			if a.CategoryID == categoryID {
				s.deselectAutomation(a.ID)
			}
		}
	}
}

func (s *State) deselectAutomation(id uuid.UUID) {
	s.SelectedAutomationIDs = remove(s.SelectedAutomationIDs, id)
	delete(s.AutomationConfigs, id)
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(ids, func(v uuid.UUID) bool { return v == id })
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
