// Package validation checks decoded request payloads and turns failures into
// domain.ValidationError values with user-facing Polish messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-ZąćęłńóśźżĄĆĘŁŃÓŚŹŻ\s-]+$`)
	phonePattern      = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)
	nonBlankPattern   = regexp.MustCompile(`\S`)
)

// InvalidValueMessage is used for rules without a dedicated message.
const InvalidValueMessage = "Niepoprawna wartość"

// messages maps field name and tag to the shown message. The "" tag is the
// field's fallback.
var messages = map[string]map[string]string{
	"firstName": {
		"required":   "Podaj imię",
		"notblank":   "Podaj imię",
		"min":        "Imię musi mieć minimum 2 znaki",
		"max":        "Imię może mieć maksymalnie 50 znaków",
		"personname": "Imię może zawierać tylko litery, spacje i myślniki",
	},
	"email": {
		"required": "Adres e-mail jest wymagany",
		"email":    "Podaj poprawny adres e-mail",
		"max":      "E-mail może mieć maksymalnie 100 znaków",
	},
	"phone": {
		"required": "Numer telefonu musi mieć minimum 9 cyfr",
		"min":      "Numer telefonu musi mieć minimum 9 cyfr",
		"max":      "Numer telefonu może mieć maksymalnie 20 znaków",
		"phone":    "Podaj poprawny numer telefonu",
	},
	"company": {
		"max": "Nazwa firmy może mieć maksymalnie 100 znaków",
	},
	"leadId": {
		"": "Brak identyfikatora zgłoszenia",
	},
	"rodoConsent": {
		"": "Zgoda na przetwarzanie danych jest wymagana",
	},
	"currency": {
		"": "Nieobsługiwana waluta",
	},
	"hourlyRate": {
		"": "Stawka godzinowa musi mieścić się w przedziale 1-10000",
	},
	"selectedAutomations": {
		"": "Wybierz przynajmniej jedną automatyzację",
	},
	"hoursPerWeek": {
		"": "Liczba godzin musi być większa od zera",
	},
	"automationPercent": {
		"": "Procent automatyzacji musi mieścić się w przedziale 0-100",
	},
}

// Validator validates structs tagged with `validate`.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the calculator's custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonBlankPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s. It returns nil, a *domain.ValidationError listing the
// first failure per field, or a domain.EINTERNAL error when s cannot be
// validated at all.
func (v *Validator) Struct(op string, s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, op, "validation failed")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		key := fieldKey(fe.Namespace())
		if _, seen := ve.Fields[key]; seen {
			continue
		}
		ve.Fields[key] = message(fe)
	}
	return ve
}

// fieldKey strips the root struct name and embedded struct names from a
// namespace: "SendReportRequest.LeadRequest.selectedAutomations[0].hoursPerWeek"
// becomes "selectedAutomations[0].hoursPerWeek".
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if strings.HasSuffix(p, "Request") {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	byTag, ok := messages[fe.Field()]
	if !ok {
		return InvalidValueMessage
	}
	if msg, ok := byTag[fe.Tag()]; ok {
		return msg
	}
	if msg, ok := byTag[""]; ok {
		return msg
	}
	return InvalidValueMessage
}
