package mailer

// Mailer sends transactional mail for the booking flow. Delivery is
// always best effort; the wizard never waits on it.
type Mailer interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
}
