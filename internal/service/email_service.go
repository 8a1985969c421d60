package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Mailer delivers account emails
type Mailer interface {
	SendCaregiverInvite(ctx context.Context, invite CaregiverInvite) error
}

// CaregiverInvite is the content of a caregiver invitation
type CaregiverInvite struct {
	ToEmail      string
	ToName       string
	ParentName   string
	TempPassword string
}

// sesAPI is the part of the SES client the service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	logger     *zap.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and drops every message.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, logger *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, logger), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		logger:     logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendCaregiverInvite tells a new caregiver how to sign in
func (s *EmailService) SendCaregiverInvite(ctx context.Context, invite CaregiverInvite) error {
	if !s.enabled {
		s.logger.Info("skipping caregiver invite (email disabled)", zap.String("to", invite.ToEmail))
		return nil
	}

	loginURL := s.appBaseURL + "/login"
	subject := fmt.Sprintf("%s invited you to CareNest", invite.ParentName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 5px; }
		.code { font-family: monospace; font-size: 18px; background: #fff; padding: 8px 12px; border: 1px solid #ddd; }
	</style>
</head>
<body>
	<div class="container">
		<div class="content">
			<p>Hi %s,</p>
			<p>%s added you as a caregiver on CareNest.</p>
			<p>Sign in at <a href="%s">%s</a> with this email address and the temporary password below:</p>
			<p class="code">%s</p>
			<p>Please change your password after your first sign in.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(invite.ToName), html.EscapeString(invite.ParentName), loginURL, loginURL, html.EscapeString(invite.TempPassword))

	textBody := fmt.Sprintf(`Hi %s,

%s added you as a caregiver on CareNest.

Sign in at %s with this email address and the temporary password below:

    %s

Please change your password after your first sign in.
`, invite.ToName, invite.ParentName, loginURL, invite.TempPassword)

	return s.sendEmail(ctx, invite.ToEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	fields := []zap.Field{zap.String("to", toEmail), zap.String("subject", subject)}
	if result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	s.logger.Info("email sent", fields...)
	return nil
}
