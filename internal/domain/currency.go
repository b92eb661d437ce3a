// Package domain contains core business types and interfaces.
//
// This file defines the currencies the calculator supports together with
// their presentation settings and default hourly rates.
package domain

import "strings"

// =============================================================================
// Currency
// =============================================================================

// Currency is an ISO 4217 code the calculator can price savings in.
type Currency string

const (
	CurrencyPLN Currency = "PLN"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// DefaultCurrency is the currency a new wizard session starts with.
const DefaultCurrency = CurrencyPLN

// SymbolPosition describes where the currency symbol is rendered.
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// CurrencyConfig holds presentation settings and the preset hourly rate for a currency.
type CurrencyConfig struct {
	Code        Currency       // ISO code
	Symbol      string         // Display symbol (zł, €, $)
	Position    SymbolPosition // Symbol placement relative to the amount
	Locale      string         // BCP 47 locale used for number grouping
	DefaultRate float64        // Preset hourly rate applied on currency change
	DisplayName string         // Label shown in the currency picker
}

var currencies = map[Currency]CurrencyConfig{
	CurrencyPLN: {Code: CurrencyPLN, Symbol: "zł", Position: SymbolAfter, Locale: "pl-PL", DefaultRate: 50, DisplayName: "PLN (zł)"},
	CurrencyEUR: {Code: CurrencyEUR, Symbol: "€", Position: SymbolBefore, Locale: "de-DE", DefaultRate: 12, DisplayName: "EUR (€)"},
	CurrencyUSD: {Code: CurrencyUSD, Symbol: "$", Position: SymbolBefore, Locale: "en-US", DefaultRate: 15, DisplayName: "USD ($)"},
}

// Currencies returns the supported currencies in picker order.
func Currencies() []Currency {
	return []Currency{CurrencyPLN, CurrencyEUR, CurrencyUSD}
}

// ParseCurrency converts a string to a Currency. Matching is case-insensitive.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := currencies[c]
	return c, ok
}

// IsValid returns true if the currency is supported.
func (c Currency) IsValid() bool {
	_, ok := currencies[c]
	return ok
}

// String returns the ISO code.
func (c Currency) String() string {
	return string(c)
}

// Config returns the presentation settings for the currency.
// Unknown currencies fall back to the default currency's settings.
func (c Currency) Config() CurrencyConfig {
	if cfg, ok := currencies[c]; ok {
		return cfg
	}
	return currencies[DefaultCurrency]
}

// DefaultHourlyRate returns the preset hourly rate for the currency.
func (c Currency) DefaultHourlyRate() float64 {
	return c.Config().DefaultRate
}

// =============================================================================
// Calculator Constants
// =============================================================================

const (
	// WeeksPerMonth is the average number of weeks in a month.
	WeeksPerMonth = 4.33

	// WeeksPerYear is the number of weeks used for yearly projections.
	WeeksPerYear = 52

	// DefaultAutomationPercent applies when an automation has no percent configured.
	DefaultAutomationPercent int = 75

	// DefaultHoursPerWeek applies when automation data is unavailable at selection time.
	DefaultHoursPerWeek float64 = 5
)

// Input limits enforced at the API boundary.
const (
	MinHourlyRate        = 1
	MaxHourlyRate        = 10000
	MinHoursPerWeek      = 0.5
	MaxHoursPerWeek      = 168
	MinAutomationPercent = 0
	MaxAutomationPercent = 100
)
