package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/bloomcart/storefront-api/config"
	templates "github.com/bloomcart/storefront-api/templates/html"
	"github.com/bloomcart/storefront-api/verification"
)

// Sendgrid delivers storefront emails through the SendGrid API. It
// implements verification.CodeSender.
type Sendgrid struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendgrid builds a sender from the project config.
func NewSendgrid(conf *config.Config) *Sendgrid {
	return &Sendgrid{
		apiKey:   conf.SendgridKey,
		from:     conf.EmailFrom,
		fromName: conf.EmailFromName,
	}
}

// SendVerificationCode emails a verification code. A transport error or a
// non-2xx SendGrid response is returned to the caller; the stored code is
// unaffected either way, so the user can ask for a resend.
func (s *Sendgrid) SendVerificationCode(ctx context.Context, email, code string, purpose verification.Purpose) error {
	if s.apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not set, cannot send email")
	}

	subject := "BloomCart email verification code"
	if purpose == verification.PurposeLogin {
		subject = "Your BloomCart sign-in code"
	}

	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", email)
	plainTextContent := "Verification code: " + code + ". This code will expire in 15 minutes."
	htmlContent := templates.RenderVerificationCode(code)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	zap.S().Infow("verification email sent",
		"email", email,
		"purpose", purpose,
		"statusCode", response.StatusCode,
	)
	return nil
}

// SendWelcome emails the post-registration welcome note. Failures are logged
// and swallowed by callers; the welcome email is best effort.
func (s *Sendgrid) SendWelcome(ctx context.Context, email, firstName string) error {
	if s.apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not set, cannot send email")
	}

	subject := "Welcome to BloomCart"
	body := fmt.Sprintf("Hi %s,\n\nYour BloomCart account is ready. Happy shopping!\n\nThe BloomCart team", firstName)

	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(firstName, email)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
