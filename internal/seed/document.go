// Package seed builds and imports the automation catalog.
//
// A catalog document lists categories and automations keyed by slug and lp.
// Documents are produced from spreadsheet rows by FromRows, validated
// against an embedded JSON schema, and written by an Importer.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var documentSchema = mustSchema(schemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("seed: invalid document schema: %v", err))
	}
	return schema
}

// Document is a complete catalog.
type Document struct {
	Categories  []CategoryEntry   `json:"categories"`
	Automations []AutomationEntry `json:"automations"`
}

// CategoryEntry is one category of a Document.
type CategoryEntry struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"displayOrder"`
}

// AutomationEntry is one automation of a Document.
type AutomationEntry struct {
	Lp                   int     `json:"lp"`
	Name                 string  `json:"name"`
	CategorySlug         string  `json:"categorySlug"`
	Integrations         string  `json:"integrations"`
	DescriptionTechnical string  `json:"descriptionTechnical"`
	DescriptionMarketing string  `json:"descriptionMarketing"`
	SavingsMin           float64 `json:"savingsMin"`
	SavingsMax           float64 `json:"savingsMax"`
	AutomationPercent    *int    `json:"automationPercent,omitempty"`
	IsActive             *bool   `json:"isActive,omitempty"`
}

// Active reports whether the automation is offered. Entries without the
// flag are active.
func (a AutomationEntry) Active() bool {
	return a.IsActive == nil || *a.IsActive
}

// ParseDocument validates data against the document schema and decodes it.
// Schema violations and dangling category slugs are reported as a
// domain.EINVALID error listing every problem.
func ParseDocument(data []byte) (*Document, error) {
	const op = "seed.parse_document"

	result, err := documentSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, domain.Invalid(op, fmt.Sprintf("malformed catalog document: %v", err))
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, domain.Invalid(op, "invalid catalog document: "+strings.Join(problems, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, domain.Invalid(op, fmt.Sprintf("malformed catalog document: %v", err))
	}
	if err := doc.check(); err != nil {
		return nil, domain.Invalid(op, err.Error())
	}
	return &doc, nil
}

// Decode accepts a catalog document, a JSON array of spreadsheet rows or
// the .xlsx catalog sheet itself. Rows are converted with FromRows.
func Decode(data []byte) (*Document, error) {
	const op = "seed.decode"

	if isWorkbook(data) {
		rows, err := ReadWorkbook(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return checkedRows(op, rows)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, domain.Invalid(op, fmt.Sprintf("malformed rows: %v", err))
		}
		return checkedRows(op, rows)
	}
	return ParseDocument(trimmed)
}

func checkedRows(op string, rows []Row) (*Document, error) {
	doc := FromRows(rows)
	if err := doc.check(); err != nil {
		return nil, domain.Invalid(op, err.Error())
	}
	return doc, nil
}

// check enforces what the schema cannot express: unique slugs and lps, and
// automations that refer to a listed category.
func (d *Document) check() error {
	slugs := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if slugs[c.Slug] {
			return fmt.Errorf("duplicate category slug %q", c.Slug)
		}
		slugs[c.Slug] = true
	}

	lps := make(map[int]bool, len(d.Automations))
	var dangling []string
	for _, a := range d.Automations {
		if lps[a.Lp] {
			return fmt.Errorf("duplicate automation lp %d", a.Lp)
		}
		lps[a.Lp] = true
		if !slugs[a.CategorySlug] {
			dangling = append(dangling, fmt.Sprintf("%d (%s)", a.Lp, a.CategorySlug))
		}
	}
	if len(dangling) > 0 {
		sort.Strings(dangling)
		return fmt.Errorf("automations refer to unknown categories: %s", strings.Join(dangling, ", "))
	}
	return nil
}
