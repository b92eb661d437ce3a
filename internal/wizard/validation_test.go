package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanProceedToStep(t *testing.T) {
	f := newFixture()
	withAutomation := apply(f.cached(),
		ToggleCategory{CategoryID: f.catA},
		ToggleAutomation{AutomationID: f.a1.ID, Automation: &f.a1},
	)
	complete := apply(withAutomation,
		SetContactField{Field: FieldFirstName, Value: "Anna"},
		SetContactField{Field: FieldEmail, Value: "anna@example.com"},
		SetContactField{Field: FieldPhone, Value: "600100200"},
		SetConsent{Kind: ConsentDataProcessing, Value: true},
	)

	tests := []struct {
		name    string
		state   State
		step    Step
		want    bool
		message string
	}{
		{"step 1 always", Initial(), StepCategories, true, ""},
		{"out of range always", Initial(), 9, true, ""},
		{"step 2 needs a category", Initial(), StepAutomations, false, MsgSelectCategory},
		{"step 2 with category", withAutomation, StepAutomations, true, ""},
		{"step 3 needs an automation", Reduce(Initial(), ToggleCategory{CategoryID: f.catA}), StepConfig, false, MsgSelectAutomation},
		{"step 3 with automation", withAutomation, StepConfig, true, ""},
		{"step 4 with valid configs", withAutomation, StepContact, true, ""},
		{
			name:    "step 4 blocked by zero hours",
			state:   Reduce(withAutomation, UpdateAutomationConfig{AutomationID: f.a1.ID, Patch: ConfigPatch{HoursPerWeek: ptr(0.0)}}),
			step:    StepContact,
			message: MsgCompleteConfig,
		},
		{
			name:    "step 4 blocked by negative hours",
			state:   Reduce(withAutomation, UpdateAutomationConfig{AutomationID: f.a1.ID, Patch: ConfigPatch{HoursPerWeek: ptr(-1.0)}}),
			step:    StepContact,
			message: MsgCompleteConfig,
		},
		{
			name:    "step 4 blocked by percent above range",
			state:   Reduce(withAutomation, UpdateAutomationConfig{AutomationID: f.a1.ID, Patch: ConfigPatch{AutomationPercent: ptr(101)}}),
			step:    StepContact,
			message: MsgCompleteConfig,
		},
		{"step 5 needs first name", withAutomation, StepSummary, false, MsgFirstName},
		{
			name:    "step 5 blank first name",
			state:   Reduce(complete, SetContactField{Field: FieldFirstName, Value: "   "}),
			step:    StepSummary,
			message: MsgFirstName,
		},
		{
			name:    "step 5 needs email",
			state:   Reduce(complete, SetContactField{Field: FieldEmail, Value: ""}),
			step:    StepSummary,
			message: MsgEmail,
		},
		{
			name:    "step 5 needs phone",
			state:   Reduce(complete, SetContactField{Field: FieldPhone, Value: " "}),
			step:    StepSummary,
			message: MsgPhone,
		},
		{
			name:    "step 5 needs consent",
			state:   Reduce(complete, SetConsent{Kind: ConsentDataProcessing, Value: false}),
			step:    StepSummary,
			message: MsgConsent,
		},
		{"step 5 complete", complete, StepSummary, true, ""},
		{
			name:  "company and marketing consent are optional",
			state: Reduce(complete, SetConsent{Kind: ConsentMarketing, Value: false}),
			step:  StepSummary,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.CanProceedToStep(tt.step))
			assert.Equal(t, tt.message, tt.state.ValidationMessage(tt.step))
		})
	}
}

func TestCanProceedToStep_DoesNotCheckPreviousSteps(t *testing.T) {
	s := apply(Initial(),
		SetContactField{Field: FieldFirstName, Value: "Anna"},
		SetContactField{Field: FieldEmail, Value: "anna@example.com"},
		SetContactField{Field: FieldPhone, Value: "600100200"},
		SetConsent{Kind: ConsentDataProcessing, Value: true},
	)

	assert.True(t, s.CanProceedToStep(StepSummary))
	assert.Equal(t, StepAutomations, s.FirstBlockedStep(StepSummary))
}

func TestGates(t *testing.T) {
	f := newFixture()
	s := apply(f.cached(), ToggleCategory{CategoryID: f.catA})

	gates := s.Gates()
	assert.Len(t, gates, 5)
	assert.Equal(t, Gate{Step: StepCategories, CanProceed: true}, gates[0])
	assert.Equal(t, Gate{Step: StepAutomations, CanProceed: true}, gates[1])
	assert.Equal(t, Gate{Step: StepConfig, CanProceed: false, Message: MsgSelectAutomation}, gates[2])
	assert.Equal(t, StepConfig, s.FirstBlockedStep(StepSummary))
	assert.Equal(t, Step(0), s.FirstBlockedStep(StepAutomations))
}
