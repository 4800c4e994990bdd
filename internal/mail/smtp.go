package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// SMTPSender sends mail synchronously through an SMTP server with
// PLAIN authentication.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	sender   string
}

var _ Mailer = (*SMTPSender)(nil)

func NewSMTPSender(host string, port int, username, password, sender string) *SMTPSender {
	if sender == "" {
		sender = username
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sender:   sender,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.sender, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.sender, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}

	slog.InfoContext(ctx, "Sent mail", "to", to, "subject", subject)
	return nil
}
