package wizard

import "strings"

// Messages shown when a step gate is not met.
const (
	MsgSelectCategory   = "Wybierz przynajmniej jedną kategorię"
	MsgSelectAutomation = "Wybierz przynajmniej jedną automatyzację"
	MsgCompleteConfig   = "Uzupełnij konfigurację wszystkich automatyzacji"
	MsgFirstName        = "Podaj imię"
	MsgEmail            = "Podaj adres e-mail"
	MsgPhone            = "Podaj numer telefonu"
	MsgConsent          = "Zaakceptuj politykę prywatności"
)

// CanProceedToStep reports whether the wizard may enter step n.
// Steps 1 and anything outside 2..5 are always reachable.
func (s State) CanProceedToStep(n Step) bool {
	return s.ValidationMessage(n) == ""
}

// ValidationMessage returns the first unmet condition that blocks entering
// step n, or an empty string if there is none.
func (s State) ValidationMessage(n Step) string {
	switch n {
	case StepAutomations:
		if len(s.SelectedCategoryIDs) == 0 {
			return MsgSelectCategory
		}
	case StepConfig:
		if len(s.SelectedAutomationIDs) == 0 {
			return MsgSelectAutomation
		}
	case StepContact:
		for _, id := range s.SelectedAutomationIDs {
			cfg, ok := s.AutomationConfigs[id]
			if !ok || !cfg.Valid() {
				return MsgCompleteConfig
			}
		}
	case StepSummary:
		switch {
		case strings.TrimSpace(s.Contact.FirstName) == "":
			return MsgFirstName
		case strings.TrimSpace(s.Contact.Email) == "":
			return MsgEmail
		case strings.TrimSpace(s.Contact.Phone) == "":
			return MsgPhone
		case !s.DataProcessingConsent:
			return MsgConsent
		}
	}
	return ""
}

// Gate is the validation summary of one step.
type Gate struct {
	Step       Step   `json:"step"`
	CanProceed bool   `json:"canProceed"`
	Message    string `json:"message,omitempty"`
}

// Gates returns the validation summary of every step.
func (s State) Gates() []Gate {
	gates := make([]Gate, 0, int(StepSummary))
	for n := StepCategories; n <= StepSummary; n++ {
		msg := s.ValidationMessage(n)
		gates = append(gates, Gate{Step: n, CanProceed: msg == "", Message: msg})
	}
	return gates
}

// FirstBlockedStep returns the lowest step that cannot be entered, or 0 when
// every step up to and including target is reachable.
func (s State) FirstBlockedStep(target Step) Step {
	for n := StepAutomations; n <= target && n <= StepSummary; n++ {
		if !s.CanProceedToStep(n) {
			return n
		}
	}
	return 0
}
