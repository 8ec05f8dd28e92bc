// Package email delivers transactional mail through SendGrid, degrading to
// structured log output when the channel is unconfigured or unreachable so
// that a lost delivery never aborts an operation already committed to
// storage.
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/aerogenv/aero-club-api/templates/html"
)

// Sender delivers a passcode email. Implementations are best effort and
// never deduplicate: calling twice sends twice.
type Sender interface {
	SendPasscode(ctx context.Context, email, name, code string) error
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendGridSender creates a SendGrid-backed sender.
func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

// SendPasscode sends the verification code email.
func (s *SendGridSender) SendPasscode(ctx context.Context, email, name, code string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	subject := "Your Aero GenV Verification Code"
	to := mail.NewEmail(name, email)
	plainTextContent := fmt.Sprintf("Your verification code is: %s. This code will expire in 10 minutes.", code)
	htmlContent := templates.RenderCode(name, code)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	zap.S().Infow("verification email sent", "email", email, "statusCode", response.StatusCode)
	return nil
}

// ConsoleSender logs the passcode instead of sending it. Used when SendGrid
// is not configured, mirroring local development where no mail leaves the
// machine.
type ConsoleSender struct{}

// SendPasscode logs the code.
func (ConsoleSender) SendPasscode(ctx context.Context, email, name, code string) error {
	zap.S().Infow("passcode email (console mode, SendGrid not configured)",
		"email", email,
		"name", name,
		"code", code,
	)
	return nil
}

// FallbackSender tries the primary sender and falls back to the secondary
// when the primary fails.
type FallbackSender struct {
	Primary   Sender
	Secondary Sender
}

// SendPasscode attempts primary delivery, then falls back.
func (f FallbackSender) SendPasscode(ctx context.Context, email, name, code string) error {
	if err := f.Primary.SendPasscode(ctx, email, name, code); err != nil {
		zap.S().Warnw("primary passcode delivery failed, using fallback", "email", email, "error", err)
		return f.Secondary.SendPasscode(ctx, email, name, code)
	}
	return nil
}

// New picks the sender for the given configuration: SendGrid with console
// fallback when an API key is present, console only otherwise.
func New(apiKey, fromEmail, fromName string) Sender {
	if apiKey == "" {
		return ConsoleSender{}
	}
	return FallbackSender{
		Primary:   NewSendGridSender(apiKey, fromEmail, fromName),
		Secondary: ConsoleSender{},
	}
}
