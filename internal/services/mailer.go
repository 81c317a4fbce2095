package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/platform/sendgrid"
)

// Mailer delivers the one-time sign-in link for the email login flow.
type Mailer interface {
	SendLoginLink(ctx context.Context, email, token string) error
}

type logMailer struct {
	log *logger.Logger
}

// NewLogMailer returns a mailer that writes the link to the log instead of
// sending mail. Used in development and as the default when no mail backend
// is configured.
func NewLogMailer(log *logger.Logger) Mailer {
	return &logMailer{log: log.With("service", "LogMailer")}
}

func (m *logMailer) SendLoginLink(ctx context.Context, email, token string) error {
	m.log.Info("login link issued", "email", email, "token", token)
	return nil
}

type sendgridMailer struct {
	log         *logger.Logger
	client      sendgrid.Client
	linkBaseURL string
}

// NewSendgridMailer delivers login links over SendGrid. The link lands on the
// frontend route that posts the token back to complete the sign-in.
func NewSendgridMailer(log *logger.Logger, client sendgrid.Client, linkBaseURL string) Mailer {
	return &sendgridMailer{
		log:         log.With("service", "SendgridMailer"),
		client:      client,
		linkBaseURL: linkBaseURL,
	}
}

func (m *sendgridMailer) SendLoginLink(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s?token=%s", m.linkBaseURL, url.QueryEscape(token))
	return m.client.Send(ctx, sendgrid.SendEmailRequest{
		ToEmail:  email,
		Subject:  "Your sign-in link",
		TextBody: fmt.Sprintf("Sign in by opening this link: %s\n\nThe link expires in 15 minutes.", link),
		HTMLBody: fmt.Sprintf(`<p>Sign in by clicking <a href="%s">this link</a>.</p><p>The link expires in 15 minutes.</p>`, link),
	})
}
