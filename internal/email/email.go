// Package email provides email sending functionality for the Ordoflow calculator.
//
// This package defines an EmailService interface with implementations for:
// - SMTP (for development with Mailhog or Mailpit)
// - Amazon SES (for production)
//
// Both implementations render the same embedded templates through a Composer.
package email

import (
	"context"
	"fmt"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending the calculator's emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendClientReport sends the savings report to the visitor who submitted the lead.
	SendClientReport(ctx context.Context, data *domain.ReportData) error

	// SendAdminNotification notifies the operator about a new lead.
	SendAdminNotification(ctx context.Context, data *domain.ReportData) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
}

// Sender identifies the sending mailbox and the operator inbox.
type Sender struct {
	From       string // Sender email address
	FromName   string // Sender display name
	AdminEmail string // Recipient of lead notifications
}

// fromHeader renders the From header value.
func (s Sender) fromHeader() string {
	return fmt.Sprintf("%s <%s>", encodeHeader(s.FromName), s.From)
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@ordoflow.com"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Ordoflow"

	// DefaultAdminEmail receives lead notifications when none is configured.
	DefaultAdminEmail = "kontakt@ordoflow.com"

	// ClientReportSubject is the subject of the visitor's report email.
	ClientReportSubject = "Twój raport oszczędności z automatyzacji - Ordoflow"

	// clientReportRows caps the automation table in the client email.
	clientReportRows = 10
)

// AdminNotificationSubject returns "Nowy lead z kalkulatora: Anna (Acme)".
func AdminNotificationSubject(contact domain.Contact) string {
	if contact.Company == "" {
		return "Nowy lead z kalkulatora: " + contact.FirstName
	}
	return fmt.Sprintf("Nowy lead z kalkulatora: %s (%s)", contact.FirstName, contact.Company)
}

func (s Sender) withDefaults() Sender {
	if s.From == "" {
		s.From = DefaultFromEmail
	}
	if s.FromName == "" {
		s.FromName = DefaultFromName
	}
	if s.AdminEmail == "" {
		s.AdminEmail = DefaultAdminEmail
	}
	return s
}
