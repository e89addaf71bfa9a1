package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	"playdates/internal/config"
)

// EmailService sends transactional email through AWS SES. When no
// sender address is configured the service runs disabled and logs the
// mail it would have sent, which keeps local development working
// without AWS credentials.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	baseURL   string
	log       *logrus.Logger
}

// NewEmailService creates an email service from configuration
func NewEmailService(cfg *config.Config, log *logrus.Logger) (*EmailService, error) {
	svc := &EmailService{
		fromEmail: cfg.SESFromEmail,
		fromName:  cfg.SESFromName,
		baseURL:   cfg.AppBaseURL,
		log:       log,
	}

	if cfg.SESFromEmail == "" {
		log.Warn("SES_FROM_EMAIL not set, email sending disabled")
		return svc, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	svc.client = sesv2.NewFromConfig(awsCfg)
	return svc, nil
}

func (s *EmailService) send(ctx context.Context, to, subject, htmlBody string) error {
	if s.client == nil {
		s.log.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("email disabled, skipping send")
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendPasswordReset sends a password reset link
func (s *EmailService) SendPasswordReset(ctx context.Context, to, name, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Click the link below to choose a new one:</p>
		<p><a href="%s">Reset your password</a></p>
		<p>If you didn't request this, you can safely ignore this email.</p>
	`, name, resetURL)
	return s.send(ctx, to, "Reset your password", body)
}

// SendSignupApproved notifies a parent their account was approved
func (s *EmailService) SendSignupApproved(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your account has been approved. You can now sign in and start planning playdates:</p>
		<p><a href="%s">Sign in</a></p>
	`, name, s.baseURL)
	return s.send(ctx, to, "Your account is ready", body)
}

// SendConnectionRequest notifies a parent of a new connection request
func (s *EmailService) SendConnectionRequest(ctx context.Context, to, name, fromName string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s would like to connect with you. Sign in to respond:</p>
		<p><a href="%s">View request</a></p>
	`, name, fromName, s.baseURL)
	return s.send(ctx, to, fmt.Sprintf("%s wants to connect", fromName), body)
}
