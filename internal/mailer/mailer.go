package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers magic-link emails. Delivery is fire-and-forget from the
// caller's perspective; a nil error means the message was handed off.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a mailer targeting the given relay address.
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// SendMagicLink sends the sign-in link to the recipient.
func (m *SMTPMailer) SendMagicLink(ctx context.Context, to, link string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your sign-in link\r\n\r\nOpen this link to sign in:\r\n\r\n%s\r\n\r\nThe link is valid once and expires shortly.\r\n",
		m.from, to, link,
	)
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer logs links instead of sending them. Used when no SMTP relay is
// configured, which keeps local development runnable.
type LogMailer struct{}

// SendMagicLink logs the link.
func (LogMailer) SendMagicLink(ctx context.Context, to, link string) error {
	log.Printf("magic link for %s: %s", to, link)
	return nil
}
