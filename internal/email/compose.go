package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/format"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// =============================================================================
// Composer
// =============================================================================

// Composer renders report emails from the embedded templates.
type Composer struct {
	html  *template.Template
	text  *texttemplate.Template
	admin string // Operator inbox
}

// NewComposer parses the embedded email templates.
func NewComposer(adminEmail string) (*Composer, error) {
	funcs := format.TemplateFuncs()

	html, err := template.New("email").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	text, err := texttemplate.New("email").Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text email templates: %w", err)
	}

	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	return &Composer{html: html, text: text, admin: adminEmail}, nil
}

// reportView is the data passed to every template.
type reportView struct {
	*domain.ReportData
	Rows     []domain.AutomationSavings
	More     int
	AdminURL string
	Year     int
}

func newReportView(data *domain.ReportData, maxRows int) reportView {
	rows := data.Automations
	more := 0
	if maxRows > 0 && len(rows) > maxRows {
		more = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	year := data.GeneratedAt.Year()
	if data.GeneratedAt.IsZero() {
		year = time.Now().Year()
	}

	return reportView{
		ReportData: data,
		Rows:       rows,
		More:       more,
		AdminURL:   fmt.Sprintf("%s/admin/leads/%s", strings.TrimSuffix(data.AppURL, "/"), data.LeadID),
		Year:       year,
	}
}

// ClientReport builds the visitor's report email.
func (c *Composer) ClientReport(data *domain.ReportData) (Email, error) {
	view := newReportView(data, clientReportRows)
	return c.compose(data.Contact.Email, ClientReportSubject, "client_report", view)
}

// AdminNotification builds the operator's new lead email.
func (c *Composer) AdminNotification(data *domain.ReportData) (Email, error) {
	view := newReportView(data, 0)
	return c.compose(c.admin, AdminNotificationSubject(data.Contact), "admin_notification", view)
}

func (c *Composer) compose(to, subject, name string, view reportView) (Email, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := c.html.ExecuteTemplate(&htmlBuf, name+".html", view); err != nil {
		return Email{}, fmt.Errorf("failed to render %s email template: %w", name, err)
	}
	if err := c.text.ExecuteTemplate(&textBuf, name+".txt", view); err != nil {
		return Email{}, fmt.Errorf("failed to render %s text template: %w", name, err)
	}

	return Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBuf.String(),
		TextBody: textBuf.String(),
	}, nil
}

// encodeHeader Q-encodes non-ASCII header values.
func encodeHeader(s string) string {
	return mime.QEncoding.Encode("utf-8", s)
}
