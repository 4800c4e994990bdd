// Package worker drains the outbound mail queue and delivers each
// message over SMTP.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"studio/internal/amqp"
	"studio/internal/mail"
)

// MailWorker handles delivery of queued mail messages
type MailWorker struct {
	sender mail.Mailer
}

func NewMailWorker(sender mail.Mailer) *MailWorker {
	return &MailWorker{sender: sender}
}

// HandleMailMessage delivers a single queued mail message. A returned
// error makes the consumer requeue the message.
func (w *MailWorker) HandleMailMessage(ctx context.Context, msg *amqp.MailMessage) error {
	slog.InfoContext(ctx, "Processing mail message",
		"to", msg.To,
		"queued_at", msg.Timestamp)

	if err := w.sender.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("deliver mail: %w", err)
	}
	return nil
}
