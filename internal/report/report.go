// Package report renders savings reports as downloadable documents.
//
// This package defines a Generator interface implemented by PDFGenerator,
// along with common helpers for naming, truncating, and styling reports in
// the Ordoflow brand style.
package report

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for report generators.
type Generator interface {
	// Generate creates a report and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.ReportFormat
}

// =============================================================================
// Layout Limits
// =============================================================================

const (
	// MaxTableRows caps the automation table for readability.
	MaxTableRows = 15

	// NameMaxLen and CategoryMaxLen bound the table columns, in characters.
	NameMaxLen     = 35
	CategoryMaxLen = 20

	// ContactLink is the call-to-action printed in the report.
	ContactLink = "ordoflow.com/kontakt"
)

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for reports.
var BrandColors = struct {
	Violet     string // Primary brand color
	VioletSoft string // Highlight label color
	Page       string // Page background
	Card       string // Card and row background
	CardAlt    string // Alternate row background
	Header     string // Table header background
	Text       string // Primary text
	TextMuted  string // Secondary text
	TextDim    string // Footer text
	Money      string // Savings amounts
}{
	Violet:     "#7C3AED",
	VioletSoft: "#E9D5FF",
	Page:       "#0A0A0F",
	Card:       "#1F2937",
	CardAlt:    "#111827",
	Header:     "#374151",
	Text:       "#F9FAFB",
	TextMuted:  "#9CA3AF",
	TextDim:    "#6B7280",
	Money:      "#10B981",
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

// hexToDec converts a 2-character hex string to decimal.
func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Helpers
// =============================================================================

// TruncateText keeps the first maxLen characters and appends an ellipsis
// when anything was cut.
func TruncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen]) + "..."
}

var nonFileNameChars = regexp.MustCompile(`[^a-z0-9]`)

// FileName returns the download name of an exported report:
// "ordoflow-raport-anna-2026-10-14.pdf".
func FileName(firstName string, at time.Time, f domain.ReportFormat) string {
	safe := nonFileNameChars.ReplaceAllString(strings.ToLower(firstName), "")
	return "ordoflow-raport-" + safe + "-" + at.UTC().Format("2006-01-02") + "." + f.String()
}
