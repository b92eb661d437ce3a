package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemRequest struct {
	HoursPerWeek      float64 `json:"hoursPerWeek" validate:"gt=0"`
	AutomationPercent int     `json:"automationPercent" validate:"gte=0,lte=100"`
}

type contactRequest struct {
	FirstName   string        `json:"firstName" validate:"required,notblank,min=2,max=50,personname"`
	Email       string        `json:"email" validate:"required,email,max=100"`
	Phone       string        `json:"phone" validate:"required,min=9,max=20,phone"`
	Company     string        `json:"company" validate:"max=100"`
	RodoConsent bool          `json:"rodoConsent" validate:"required"`
	Items       []itemRequest `json:"selectedAutomations" validate:"required,min=1,dive"`
}

type WrapperRequest struct {
	contactRequest
	Note string `json:"-"`
}

func validContact() contactRequest {
	return contactRequest{
		FirstName:   "Łucja Anna",
		Email:       "lucja@example.com",
		Phone:       "+48 (600) 100-200",
		RodoConsent: true,
		Items:       []itemRequest{{HoursPerWeek: 4, AutomationPercent: 75}},
	}
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		modify func(r *contactRequest)
		field  string
		msg    string
	}{
		{"first name too short", func(r *contactRequest) { r.FirstName = "A" }, "firstName", "Imię musi mieć minimum 2 znaki"},
		{"first name digits", func(r *contactRequest) { r.FirstName = "Anna2" }, "firstName", "Imię może zawierać tylko litery, spacje i myślniki"},
		{"first name too long", func(r *contactRequest) { r.FirstName = strings.Repeat("ą", 51) }, "firstName", "Imię może mieć maksymalnie 50 znaków"},
		{"first name blank", func(r *contactRequest) { r.FirstName = "   " }, "firstName", "Podaj imię"},
		{"email missing", func(r *contactRequest) { r.Email = "" }, "email", "Adres e-mail jest wymagany"},
		{"email malformed", func(r *contactRequest) { r.Email = "not-an-email" }, "email", "Podaj poprawny adres e-mail"},
		{"phone too short", func(r *contactRequest) { r.Phone = "600 100" }, "phone", "Numer telefonu musi mieć minimum 9 cyfr"},
		{"phone letters", func(r *contactRequest) { r.Phone = "600-100-abc" }, "phone", "Podaj poprawny numer telefonu"},
		{"company too long", func(r *contactRequest) { r.Company = strings.Repeat("x", 101) }, "company", "Nazwa firmy może mieć maksymalnie 100 znaków"},
		{"consent missing", func(r *contactRequest) { r.RodoConsent = false }, "rodoConsent", "Zgoda na przetwarzanie danych jest wymagana"},
		{"no automations", func(r *contactRequest) { r.Items = nil }, "selectedAutomations", "Wybierz przynajmniej jedną automatyzację"},
		{"zero hours", func(r *contactRequest) { r.Items[0].HoursPerWeek = 0 }, "selectedAutomations[0].hoursPerWeek", "Liczba godzin musi być większa od zera"},
		{"percent too high", func(r *contactRequest) { r.Items[0].AutomationPercent = 120 }, "selectedAutomations[0].automationPercent", "Procent automatyzacji musi mieścić się w przedziale 0-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validContact()
			tt.modify(&r)

			err := v.Struct("test.validate", r)
			require.Error(t, err)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "test.validate", ve.Op)
			assert.Equal(t, tt.msg, ve.Fields[tt.field], "fields: %v", ve.Fields)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestValidator_Struct_Valid(t *testing.T) {
	assert.NoError(t, New().Struct("test.validate", validContact()))
}

func TestValidator_Struct_EmbeddedRequest(t *testing.T) {
	r := WrapperRequest{contactRequest: validContact()}
	r.Email = "bad"

	err := New().Struct("test.validate", r)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestValidator_Struct_NotAStruct(t *testing.T) {
	err := New().Struct("test.validate", 42)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "email", fieldKey("LeadRequest.email"))
	assert.Equal(t, "selectedAutomations[2].hoursPerWeek", fieldKey("SendReportRequest.LeadRequest.selectedAutomations[2].hoursPerWeek"))
	assert.Equal(t, "leadId", fieldKey("SendReportRequest.leadId"))
}
