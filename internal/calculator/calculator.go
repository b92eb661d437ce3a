// Package calculator derives projected savings from selected automations.
//
// Every function in this package is pure. Inputs that are missing or out of
// range degrade to zero or are skipped; nothing here returns an error.
package calculator

import (
	"math"
	"sort"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// Config is the per-automation input to the engine.
type Config struct {
	HoursPerWeek      float64
	AutomationPercent int
}

// Round2 rounds half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// AutomationSavings computes the savings triple for one automation.
// Monthly and yearly are derived from the unrounded weekly value.
func AutomationSavings(hoursPerWeek, hourlyRate float64, automationPercent int) domain.SavingsResult {
	weekly := hoursPerWeek * hourlyRate * (float64(automationPercent) / 100)
	return domain.SavingsResult{
		Weekly:  Round2(weekly),
		Monthly: Round2(weekly * domain.WeeksPerMonth),
		Yearly:  Round2(weekly * domain.WeeksPerYear),
	}
}

// Total aggregates savings over the given automations.
//
// Automations without an entry in configs are skipped. Totals and
// per-category sums accumulate the rounded per-automation values and are
// rounded once after accumulation.
func Total(
	automations []domain.Automation,
	configs map[uuid.UUID]Config,
	hourlyRate float64,
	currency domain.Currency,
) domain.SavingsReport {
	report := domain.SavingsReport{
		ByAutomation: make([]domain.AutomationSavings, 0, len(automations)),
		ByCategory:   make(map[string]domain.SavingsResult),
		ByCategoryID: make(map[uuid.UUID]domain.SavingsResult),
		Currency:     currency,
		HourlyRate:   hourlyRate,
	}

	var total domain.SavingsResult
	for _, a := range automations {
		cfg, ok := configs[a.ID]
		if !ok {
			continue
		}

		s := AutomationSavings(cfg.HoursPerWeek, hourlyRate, cfg.AutomationPercent)
		report.ByAutomation = append(report.ByAutomation, domain.AutomationSavings{
			AutomationID:      a.ID,
			AutomationName:    a.Name,
			CategoryID:        a.CategoryID,
			CategoryName:      a.CategoryName,
			HoursPerWeek:      cfg.HoursPerWeek,
			AutomationPercent: cfg.AutomationPercent,
			Weekly:            s.Weekly,
			Monthly:           s.Monthly,
			Yearly:            s.Yearly,
		})

		total = add(total, s)
		report.ByCategory[a.CategoryName] = add(report.ByCategory[a.CategoryName], s)
		report.ByCategoryID[a.CategoryID] = add(report.ByCategoryID[a.CategoryID], s)
	}

	report.Total = round(total)
	for k, v := range report.ByCategory {
		report.ByCategory[k] = round(v)
	}
	for k, v := range report.ByCategoryID {
		report.ByCategoryID[k] = round(v)
	}

	return report
}

// DefaultHours returns the midpoint of a savings range rounded to the nearest hour.
func DefaultHours(savingsMin, savingsMax float64) float64 {
	return math.Floor((savingsMin+savingsMax)/2 + 0.5)
}

// SortByYearly returns a copy of items ordered by yearly savings, highest first.
// Items with equal yearly savings keep their relative order.
func SortByYearly(items []domain.AutomationSavings) []domain.AutomationSavings {
	sorted := make([]domain.AutomationSavings, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Yearly > sorted[j].Yearly
	})
	return sorted
}

// DefaultTopLimit is the number of highlights TopAutomations returns when limit <= 0.
const DefaultTopLimit = 5

// TopAutomations returns up to limit items with the highest yearly savings.
func TopAutomations(items []domain.AutomationSavings, limit int) []domain.AutomationSavings {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	sorted := SortByYearly(items)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func add(a, b domain.SavingsResult) domain.SavingsResult {
	return domain.SavingsResult{
		Weekly:  a.Weekly + b.Weekly,
		Monthly: a.Monthly + b.Monthly,
		Yearly:  a.Yearly + b.Yearly,
	}
}

func round(s domain.SavingsResult) domain.SavingsResult {
	return domain.SavingsResult{
		Weekly:  Round2(s.Weekly),
		Monthly: Round2(s.Monthly),
		Yearly:  Round2(s.Yearly),
	}
}
