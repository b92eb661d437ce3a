package seed

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/DukeRupert/ordoflow/internal/format"
)

// Spreadsheet column names.
const (
	ColumnLp                   = "LP"
	ColumnName                 = "Nazwa po polsku"
	ColumnCategory             = "Kategoria"
	ColumnIntegrations         = "Integracje"
	ColumnDescriptionTechnical = "Opis działania"
	ColumnDescriptionMarketing = "Opis marketingowy"
	ColumnSavings              = "Oszczędność (tyg.)"
	ColumnActive               = "Aktywna"
)

// DefaultIcon is used for categories without a mapped icon.
const DefaultIcon = "Folder"

// ImportedAutomationPercent is the percent given to automations created
// from spreadsheet rows.
const ImportedAutomationPercent = 75

// categoryIcons maps category slugs to Lucide icon names.
var categoryIcons = map[string]string{
	"social-media-wideo":       "Video",
	"produktywnosc-email":      "Mail",
	"content-marketing":        "FileText",
	"obsluga-klienta-crm":      "Headphones",
	"lead-generation-sprzedaz": "Target",
	"e-commerce":               "ShoppingCart",
	"analityka-research":       "BarChart3",
	"hr-rekrutacja":            "Users",
	"zarzadzanie-trescia":      "FolderOpen",
	"marketing-analityka":      "TrendingUp",
	"finanse-analityka":        "Wallet",
	"grafika-design":           "Palette",
	"it-devops":                "Terminal",
}

// IconFor returns the icon of a category slug.
func IconFor(slug string) string {
	if icon, ok := categoryIcons[slug]; ok {
		return icon
	}
	return DefaultIcon
}

var (
	savingsRange  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*h?`)
	savingsSingle = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*h?`)
)

// ParseSavings reads a weekly savings cell: "8-12h" gives 8 and 12, "1h"
// gives 1 and 1, anything else gives zeros.
func ParseSavings(s string) (lo, hi float64) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}
	if m := savingsRange.FindStringSubmatch(s); m != nil {
		lo, _ = strconv.ParseFloat(m[1], 64)
		hi, _ = strconv.ParseFloat(m[2], 64)
		return lo, hi
	}
	if m := savingsSingle.FindStringSubmatch(s); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, v
	}
	return 0, 0
}

// inactiveMarks are the Aktywna cell values that disable a row. An empty
// cell keeps the row active.
var inactiveMarks = map[string]bool{"nie": true, "no": true, "false": true, "0": true}

// Row is one spreadsheet row keyed by column name, read from a workbook
// or exported as JSON.
type Row map[string]any

func (r Row) text(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (r Row) lp() int {
	switch v := r[ColumnLp].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return int(n)
	}
	return 0
}

// FromRows builds a Document from spreadsheet rows.
//
// Categories are ordered by how many rows use them, most first, ties in
// order of first appearance. Rows without lp, name or category are skipped.
func FromRows(rows []Row) *Document {
	type bucket struct {
		name  string
		count int
		first int
	}
	buckets := map[string]*bucket{}
	for i, row := range rows {
		name := row.text(ColumnCategory)
		if name == "" {
			continue
		}
		if b, ok := buckets[name]; ok {
			b.count++
			continue
		}
		buckets[name] = &bucket{name: name, count: 1, first: i}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].first < ordered[j].first
	})

	doc := &Document{
		Categories:  make([]CategoryEntry, 0, len(ordered)),
		Automations: make([]AutomationEntry, 0, len(rows)),
	}
	for i, b := range ordered {
		slug := format.Slugify(b.name)
		doc.Categories = append(doc.Categories, CategoryEntry{
			Name:         b.name,
			Slug:         slug,
			Icon:         IconFor(slug),
			DisplayOrder: i + 1,
		})
	}

	for _, row := range rows {
		lp, name, category := row.lp(), row.text(ColumnName), row.text(ColumnCategory)
		if lp == 0 || name == "" || category == "" {
			continue
		}
		lo, hi := ParseSavings(row.text(ColumnSavings))
		percent := ImportedAutomationPercent
		active := !inactiveMarks[strings.ToLower(row.text(ColumnActive))]
		doc.Automations = append(doc.Automations, AutomationEntry{
			Lp:                   lp,
			Name:                 name,
			CategorySlug:         format.Slugify(category),
			Integrations:         row.text(ColumnIntegrations),
			DescriptionTechnical: row.text(ColumnDescriptionTechnical),
			DescriptionMarketing: row.text(ColumnDescriptionMarketing),
			SavingsMin:           lo,
			SavingsMax:           hi,
			AutomationPercent:    &percent,
			IsActive:             &active,
		})
	}

	return doc
}
