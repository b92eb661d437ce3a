package format

import (
	"html/template"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

var polishMonths = [...]string{
	"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
	"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
}

// Date formats a date the Polish way: "14 października 2026".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2") + " " + polishMonths[t.Month()-1] + " " + t.Format("2006")
}

// TemplateFuncs returns the functions available to email templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// Amounts
		"currency": func(amount float64, c domain.Currency) string {
			return Currency(amount, c)
		},
		"hours":   Hours,
		"percent": func(v int) string { return Percent(float64(v)) },

		// Dates
		"date": Date,
		"year": func() int {
			return time.Now().Year()
		},

		// Strings
		"firstName": FirstName,
		"truncate": func(s string, length int) string {
			r := []rune(s)
			if len(r) <= length {
				return s
			}
			return string(r[:length]) + "..."
		},

		"add": func(a, b int) int {
			return a + b
		},
	}
}
