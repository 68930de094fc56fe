package mailer

import (
	"github.com/lumine/darshan-bookings/pkg/logger"
)

// DevMailer logs mail instead of sending it, for local development and
// CI where no MailerSend key is configured.
type DevMailer struct{}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("DEV MAIL (not sent)",
		"to", toEmail,
		"to_name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev-mail", nil
}
