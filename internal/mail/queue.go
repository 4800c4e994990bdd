package mail

import (
	"context"
	"fmt"

	"studio/internal/amqp"
)

// MailPublisher enqueues a mail message for asynchronous delivery.
type MailPublisher interface {
	PublishMail(ctx context.Context, msg *amqp.MailMessage) error
}

// QueueSender enqueues mail on the outbox queue instead of sending it
// directly. The worker binary drains the queue.
type QueueSender struct {
	publisher MailPublisher
}

var _ Mailer = (*QueueSender)(nil)

func NewQueueSender(publisher MailPublisher) *QueueSender {
	return &QueueSender{publisher: publisher}
}

func (q *QueueSender) Send(ctx context.Context, to, subject, body string) error {
	if err := q.publisher.PublishMail(ctx, amqp.NewMailMessage(to, subject, body)); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}
