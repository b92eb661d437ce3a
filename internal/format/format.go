// Package format renders amounts, hours and labels the way the calculator
// shows them to users.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// printer returns a message printer for a currency's locale.
func printer(c domain.Currency) *message.Printer {
	tag, err := language.Parse(c.Config().Locale)
	if err != nil {
		tag = language.Polish
	}
	return message.NewPrinter(tag)
}

// Currency formats a whole-unit amount with the currency symbol in its
// locale position, e.g. "12 500 zł", "€4.200", "$5,100".
func Currency(amount float64, c domain.Currency) string {
	cfg := c.Config()
	n := printer(c).Sprintf("%v", number.Decimal(int64(math.Round(amount))))
	return placeSymbol(n, cfg)
}

// CurrencyPrecise formats an amount with two decimals.
func CurrencyPrecise(amount float64, c domain.Currency) string {
	cfg := c.Config()
	n := printer(c).Sprintf("%v", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	return placeSymbol(n, cfg)
}

func placeSymbol(n string, cfg domain.CurrencyConfig) string {
	if cfg.Position == domain.SymbolBefore {
		return cfg.Symbol + n
	}
	return n + " " + cfg.Symbol
}

// Number formats a rounded number with the locale's thousands separator.
func Number(v float64, c domain.Currency) string {
	return printer(c).Sprintf("%v", number.Decimal(int64(math.Round(v))))
}

// Hours formats an hour count: "8h", "1.5h".
func Hours(h float64) string {
	if h == math.Trunc(h) {
		return strconv.FormatFloat(h, 'f', -1, 64) + "h"
	}
	return strconv.FormatFloat(h, 'f', 1, 64) + "h"
}

// HoursRange formats a savings range: "8-12h", or "1h" when both ends match.
func HoursRange(min, max float64) string {
	if min == max {
		return Hours(min)
	}
	return fmt.Sprintf("%s-%sh", strconv.FormatFloat(min, 'f', -1, 64), strconv.FormatFloat(max, 'f', -1, 64))
}

// Percent formats a percentage rounded to whole numbers: "75%".
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}

// =============================================================================
// Text
// =============================================================================

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	dashes       = regexp.MustCompile(`-+`)
)

// stroke maps letters with a stroke, which have no canonical decomposition.
var stroke = strings.NewReplacer("ł", "l", "Ł", "L", "đ", "d", "Đ", "D", "ø", "o", "Ø", "O")

// Fold strips diacritics: "Księgowość" becomes "Ksiegowosc".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, stroke.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Slugify builds a URL slug: "Social Media & Wideo" becomes "social-media-wideo".
func Slugify(s string) string {
	s = strings.ToLower(Fold(s))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FirstName capitalizes a first name for greetings.
func FirstName(s string) string {
	return cases.Title(language.Polish).String(strings.TrimSpace(s))
}
