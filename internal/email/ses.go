package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// =============================================================================
// SES Email Service Implementation
// =============================================================================

// sesAPI is the subset of the SES client used for delivery.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailService sends emails through Amazon SES.
//
// Credentials come from the default AWS chain (environment, shared config,
// or the instance role).
type SESEmailService struct {
	client   sesAPI
	sender   Sender
	composer *Composer
	logger   *slog.Logger
}

// NewSESEmailService creates an SES-backed email service for the given region.
func NewSESEmailService(ctx context.Context, region string, sender Sender, logger *slog.Logger) (*SESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESEmailService(ses.NewFromConfig(cfg), sender, logger)
}

func newSESEmailService(client sesAPI, sender Sender, logger *slog.Logger) (*SESEmailService, error) {
	sender = sender.withDefaults()

	composer, err := NewComposer(sender.AdminEmail)
	if err != nil {
		return nil, err
	}

	return &SESEmailService{
		client:   client,
		sender:   sender,
		composer: composer,
		logger:   logger,
	}, nil
}

// SendClientReport sends the savings report to the visitor.
func (s *SESEmailService) SendClientReport(ctx context.Context, data *domain.ReportData) error {
	email, err := s.composer.ClientReport(data)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendAdminNotification notifies the operator about a new lead.
func (s *SESEmailService) SendAdminNotification(ctx context.Context, data *domain.ReportData) error {
	email, err := s.composer.AdminNotification(data)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

func (s *SESEmailService) send(ctx context.Context, email Email) error {
	const charset = "UTF-8"

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.sender.fromHeader()),
		Destination: &types.Destination{ToAddresses: []string{email.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String(charset)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(email.HTMLBody), Charset: aws.String(charset)},
				Text: &types.Content{Data: aws.String(email.TextBody), Charset: aws.String(charset)},
			},
		},
	})
	if err != nil {
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
		"message_id", aws.ToString(out.MessageId),
	)

	return nil
}

var _ EmailService = (*SESEmailService)(nil)
