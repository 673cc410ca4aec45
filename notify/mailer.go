package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers one message and reports the outcome. Implementations must
// be safe for concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends over a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // nil for unauthenticated relays
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
