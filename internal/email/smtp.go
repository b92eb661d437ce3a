package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// defaultSMTPTimeout bounds a delivery when the context carries no deadline.
const defaultSMTPTimeout = 30 * time.Second

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog or Mailpit (development): No authentication required
// - Any standard SMTP server with PLAIN authentication
type SMTPEmailService struct {
	config   SMTPConfig
	sender   Sender
	composer *Composer
	logger   *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Example usage:
//
//	emailService, err := email.NewSMTPEmailService(
//	    email.SMTPConfig{Host: "localhost", Port: 1025},
//	    email.Sender{From: "kalkulator@ordoflow.com", FromName: "Ordoflow"},
//	    logger,
//	)
func NewSMTPEmailService(config SMTPConfig, sender Sender, logger *slog.Logger) (*SMTPEmailService, error) {
	sender = sender.withDefaults()

	composer, err := NewComposer(sender.AdminEmail)
	if err != nil {
		return nil, err
	}

	return &SMTPEmailService{
		config:   config,
		sender:   sender,
		composer: composer,
		logger:   logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendClientReport sends the savings report to the visitor.
func (s *SMTPEmailService) SendClientReport(ctx context.Context, data *domain.ReportData) error {
	email, err := s.composer.ClientReport(data)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendAdminNotification notifies the operator about a new lead.
func (s *SMTPEmailService) SendAdminNotification(ctx context.Context, data *domain.ReportData) error {
	email, err := s.composer.AdminNotification(data)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send delivers an email over a connection bounded by the context deadline.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	msg, err := buildMessage(s.sender, email)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	if err := s.deliver(ctx, email.To, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

func (s *SMTPEmailService) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSMTPTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}

	// Abort the exchange when the context is canceled mid-conversation.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return err
		}
	}

	// Create auth if credentials are provided (not needed for Mailhog)
	if s.config.Username != "" && s.config.Password != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(s.sender.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage constructs the raw email message with headers.
func buildMessage(sender Sender, email Email) ([]byte, error) {
	var buf bytes.Buffer

	// Write headers
	buf.WriteString(fmt.Sprintf("From: %s\r\n", sender.fromHeader()))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", encodeHeader(email.Subject)))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	// Create multipart message for HTML + text
	boundary := "===============ORDOFLOW_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", email.TextBody},
		{"text/html; charset=utf-8", email.HTMLBody},
	}

	for _, part := range parts {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", part.contentType))
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
		buf.WriteString("\r\n")

		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}

	// End boundary
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes(), nil
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
