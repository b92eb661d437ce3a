package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/format"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator generates PDF savings reports.
//
// Core PDF fonts only cover cp1252, so text is folded to plain Latin letters
// ("oszczędności" becomes "oszczednosci") before it is encoded.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 14.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ReportFormat {
	return domain.ReportFormatPDF
}

// pdfDoc carries one document being rendered.
type pdfDoc struct {
	*fpdf.Fpdf
	enc *encoding.Encoder
}

// tr converts UTF-8 text to the core font encoding.
func (d *pdfDoc) tr(s string) string {
	folded := format.Fold(s)
	out, err := d.enc.String(folded)
	if err != nil {
		return folded
	}
	return out
}

func (d *pdfDoc) color(hex string) (int, int, int) {
	return HexToRGB(hex)
}

// Generate creates a PDF report and writes it to the provided writer.
func (g *PDFGenerator) Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc := &pdfDoc{
		Fpdf: fpdf.New("P", "mm", "A4", ""),
		enc:  encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}

	// Set document metadata
	doc.SetTitle("Raport oszczędności - "+data.Contact.FirstName, true)
	doc.SetAuthor("Ordoflow", true)
	doc.SetCreator("Ordoflow kalkulator oszczędności", true)

	doc.SetMargins(g.margin, g.margin, g.margin)
	doc.SetAutoPageBreak(true, 22)

	// Dark page background on every page
	doc.SetHeaderFunc(func() {
		doc.SetFillColor(doc.color(BrandColors.Page))
		doc.Rect(0, 0, g.pageWidth, g.pageHeight, "F")
		doc.SetXY(g.margin, g.margin)
	})
	doc.SetFooterFunc(func() {
		g.addFooter(doc, data)
	})

	doc.AddPage()
	g.addHeader(doc)
	g.addTitle(doc, data)
	g.addSavingsCards(doc, data)
	g.addAutomationTable(doc, data)

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g.addCallToAction(doc)

	// Check for errors during generation
	if err := doc.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	// Write to buffer to count bytes
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(doc *pdfDoc) {
	doc.SetTextColor(doc.color(BrandColors.Violet))
	doc.SetFont("Helvetica", "B", 24)
	doc.CellFormat(0, 10, "ORDOFLOW", "", 1, "L", false, 0, "")

	doc.SetTextColor(doc.color(BrandColors.TextMuted))
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, doc.tr("Automatyzacja procesów biznesowych"), "", 1, "L", false, 0, "")

	// Violet rule under the header
	y := doc.GetY() + 4
	doc.SetDrawColor(doc.color(BrandColors.Violet))
	doc.SetLineWidth(0.7)
	doc.Line(g.margin, y, g.pageWidth-g.margin, y)
	doc.SetLineWidth(0.2)
	doc.SetY(y + 8)
}

func (g *PDFGenerator) addTitle(doc *pdfDoc, data *domain.ReportData) {
	doc.SetTextColor(doc.color(BrandColors.Text))
	doc.SetFont("Helvetica", "B", 22)
	doc.MultiCell(g.contentWidth, 10, doc.tr("Raport oszczędności dla "+data.Contact.FirstName), "", "L", false)

	subtitle := fmt.Sprintf("Wygenerowano: %s | Stawka: %s/h",
		format.Date(data.GeneratedAt),
		format.Currency(data.HourlyRate, data.Currency),
	)
	doc.SetTextColor(doc.color(BrandColors.TextMuted))
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, doc.tr(subtitle), "", 1, "L", false, 0, "")
	doc.Ln(8)
}

func (g *PDFGenerator) addSavingsCards(doc *pdfDoc, data *domain.ReportData) {
	const (
		gap    = 6.0
		height = 26.0
	)
	width := (g.contentWidth - 2*gap) / 3
	top := doc.GetY()

	cards := []struct {
		label     string
		amount    float64
		highlight bool
	}{
		{"Tygodniowo", data.Total.Weekly, false},
		{"Miesięcznie", data.Total.Monthly, false},
		{"Rocznie", data.Total.Yearly, true},
	}

	for i, card := range cards {
		x := g.margin + float64(i)*(width+gap)

		fill, label, value := BrandColors.Card, BrandColors.TextMuted, BrandColors.Text
		if card.highlight {
			fill, label, value = BrandColors.Violet, BrandColors.VioletSoft, "#FFFFFF"
		}

		doc.SetFillColor(doc.color(fill))
		doc.RoundedRect(x, top, width, height, 2, "1234", "F")

		doc.SetXY(x, top+5)
		doc.SetTextColor(doc.color(label))
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(width, 5, doc.tr(card.label), "", 0, "C", false, 0, "")

		size := 16.0
		if card.highlight {
			size = 18
		}
		doc.SetXY(x, top+12)
		doc.SetTextColor(doc.color(value))
		doc.SetFont("Helvetica", "B", size)
		doc.CellFormat(width, 9, doc.tr(format.Currency(card.amount, data.Currency)), "", 0, "C", false, 0, "")
	}

	doc.SetXY(g.margin, top+height+10)
}

// columns of the automation table, in mm.
func (g *PDFGenerator) columns() []float64 {
	unit := g.contentWidth / 8.5
	return []float64{3 * unit, 2 * unit, unit, unit, 1.5 * unit}
}

func (g *PDFGenerator) addAutomationTable(doc *pdfDoc, data *domain.ReportData) {
	doc.SetTextColor(doc.color(BrandColors.Text))
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 8, doc.tr(fmt.Sprintf("Wybrane automatyzacje (%d)", len(data.Automations))), "", 1, "L", false, 0, "")
	doc.Ln(2)

	cols := g.columns()

	// Header row
	doc.SetFillColor(doc.color(BrandColors.Header))
	doc.SetTextColor(doc.color(BrandColors.TextMuted))
	doc.SetFont("Helvetica", "B", 8)
	headers := []string{"AUTOMATYZACJA", "KATEGORIA", "H/TYG", "%", "ROCZNIE"}
	aligns := []string{"L", "L", "C", "C", "R"}
	for i, h := range headers {
		doc.CellFormat(cols[i], 8, h, "", 0, aligns[i], true, 0, "")
	}
	doc.Ln(-1)

	rows := data.Automations
	if len(rows) > MaxTableRows {
		rows = rows[:MaxTableRows]
	}

	doc.SetFont("Helvetica", "", 9)
	for i, item := range rows {
		fill := BrandColors.Card
		if i%2 == 1 {
			fill = BrandColors.CardAlt
		}
		doc.SetFillColor(doc.color(fill))

		cells := []string{
			TruncateText(item.AutomationName, NameMaxLen),
			TruncateText(item.CategoryName, CategoryMaxLen),
			format.Hours(item.HoursPerWeek),
			fmt.Sprintf("%d%%", item.AutomationPercent),
		}

		doc.SetTextColor(doc.color("#D1D5DB"))
		for c, text := range cells {
			doc.CellFormat(cols[c], 8, doc.tr(text), "", 0, aligns[c], true, 0, "")
		}

		doc.SetTextColor(doc.color(BrandColors.Money))
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(cols[4], 8, doc.tr(format.Currency(item.Yearly, data.Currency)), "", 1, "R", true, 0, "")
		doc.SetFont("Helvetica", "", 9)
	}

	if extra := len(data.Automations) - MaxTableRows; extra > 0 {
		doc.Ln(3)
		doc.SetTextColor(doc.color(BrandColors.TextDim))
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(0, 6, doc.tr(fmt.Sprintf("...i %d więcej automatyzacji", extra)), "", 1, "C", false, 0, "")
	}
}

func (g *PDFGenerator) addCallToAction(doc *pdfDoc) {
	const height = 34.0

	doc.Ln(10)
	if doc.GetY()+height > g.pageHeight-22 {
		doc.AddPage()
	}
	top := doc.GetY()

	doc.SetFillColor(doc.color(BrandColors.Card))
	doc.Rect(g.margin, top, g.contentWidth, height, "F")
	doc.SetFillColor(doc.color(BrandColors.Violet))
	doc.Rect(g.margin, top, 1.5, height, "F")

	inner := g.margin + 7
	doc.SetXY(inner, top+5)
	doc.SetTextColor(doc.color(BrandColors.Text))
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 7, doc.tr("Gotowy, żeby zacząć oszczędzać?"), "", 2, "L", false, 0, "")

	doc.SetTextColor(doc.color(BrandColors.TextMuted))
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(g.contentWidth-14, 5,
		doc.tr("Umów bezpłatną konsultację z naszym ekspertem i dowiedz się, jak wdrożyć te automatyzacje w Twojej firmie."),
		"", "L", false)

	doc.SetX(inner)
	doc.SetTextColor(doc.color(BrandColors.Violet))
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(0, 6, ContactLink, "", 1, "L", false, 0, "https://"+ContactLink)
}

func (g *PDFGenerator) addFooter(doc *pdfDoc, data *domain.ReportData) {
	doc.SetY(-18)

	year := data.GeneratedAt.Year()
	doc.SetTextColor(doc.color(BrandColors.TextDim))
	doc.SetFont("Helvetica", "", 8)
	footer := fmt.Sprintf("© %d Ordoflow - Automatyzacja procesów biznesowych | ordoflow.com", year)
	doc.CellFormat(0, 8, doc.tr(footer), "", 0, "C", false, 0, "")
}

var _ Generator = (*PDFGenerator)(nil)
