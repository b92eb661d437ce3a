package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Category
// =============================================================================

// Category groups automations by business area (e.g., sales, accounting).
//
// Categories are authored outside this service and are read-only here.
type Category struct {
	ID           uuid.UUID `json:"id"`                    // Unique identifier
	Name         string    `json:"name"`                  // Display name
	Slug         string    `json:"slug"`                  // URL slug (unique)
	Icon         string    `json:"icon,omitempty"`        // Optional Lucide icon name
	Description  string    `json:"description,omitempty"` // Optional description
	DisplayOrder int       `json:"displayOrder"`          // Sort key, ascending
	Active       bool      `json:"isActive"`              // Hidden from the calculator when false
	CreatedAt    time.Time `json:"-"`                     // When category was created
	UpdatedAt    time.Time `json:"-"`                     // When category was last modified
}

// =============================================================================
// Automation
// =============================================================================

// Automation is a single automatable process belonging to a category.
type Automation struct {
	ID                   uuid.UUID `json:"id"`                             // Unique identifier
	Lp                   int       `json:"lp"`                             // Ordinal position within the catalog
	Name                 string    `json:"name"`                           // Display name
	CategoryID           uuid.UUID `json:"categoryId"`                     // Owning category
	CategoryName         string    `json:"categoryName"`                   // Owning category display name (joined)
	CategorySlug         string    `json:"categorySlug"`                   // Owning category slug (joined)
	Integrations         string    `json:"integrations,omitempty"`         // Optional integration notes
	TechnicalDescription string    `json:"descriptionTechnical,omitempty"` // Optional technical description
	MarketingDescription string    `json:"descriptionMarketing"`           // Short pitch shown in the wizard
	SavingsMin           float64   `json:"savingsMin"`                     // Lower bound of weekly hours saved
	SavingsMax           float64   `json:"savingsMax"`                     // Upper bound of weekly hours saved
	AutomationPercent    int       `json:"automationPercent"`              // Default share of the work that gets automated (0-100)
	Active               bool      `json:"isActive"`                       // Hidden from the calculator when false
}

// EffectivePercent returns the automation percent, falling back to the
// global default when none is configured.
func (a *Automation) EffectivePercent() int {
	if a.AutomationPercent <= 0 {
		return DefaultAutomationPercent
	}
	return a.AutomationPercent
}

// =============================================================================
// Catalog Import Types
// =============================================================================

// CatalogImport is a complete catalog document to be written by the importer.
type CatalogImport struct {
	Categories  []Category
	Automations []Automation // CategoryID refers to Categories[i].ID
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	CategoriesUpserted  int `json:"categoriesUpserted"`
	AutomationsUpserted int `json:"automationsUpserted"`
}
