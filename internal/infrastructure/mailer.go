package infrastructure

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends the verification email through SendGrid. The mail
// embeds a confirmation URL carrying the code as a query parameter.
type SendGridMailer struct {
	client          *sendgrid.Client
	senderName      string
	senderEmail     string
	confirmationURL string
}

type MailerConfig struct {
	APIKey          string
	SenderName      string
	SenderEmail     string
	ConfirmationURL string
}

func NewSendGridMailer(cfg MailerConfig) *SendGridMailer {
	return &SendGridMailer{
		client:          sendgrid.NewSendClient(cfg.APIKey),
		senderName:      cfg.SenderName,
		senderEmail:     cfg.SenderEmail,
		confirmationURL: cfg.ConfirmationURL,
	}
}

func (m *SendGridMailer) SendVerificationEmail(ctx context.Context, recipientEmail, recipientName, code string) error {
	from := mail.NewEmail(m.senderName, m.senderEmail)
	to := mail.NewEmail(recipientName, recipientEmail)
	confirmationURL := m.confirmationURL + "?code=" + url.QueryEscape(code)

	plainTextContent := fmt.Sprintf(
		"Please confirm your email address by visiting %s\n\nYour verification code is: %s",
		confirmationURL, code,
	)
	htmlContent := fmt.Sprintf(
		`<p>Please confirm your email address by clicking <a href=%q>this link</a>.</p><p>Your verification code is: <strong>%s</strong></p>`,
		confirmationURL, code,
	)

	message := mail.NewSingleEmail(from, "Email verification", to, plainTextContent, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected verification email: status %d", response.StatusCode)
	}

	return nil
}
