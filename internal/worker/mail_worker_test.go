package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio/internal/amqp"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestHandleMailMessage(t *testing.T) {
	sender := &fakeSender{}
	w := NewMailWorker(sender)

	msg := &amqp.MailMessage{
		To:        "alpe@example.com",
		Subject:   "Password recovery",
		Body:      "body",
		Timestamp: time.Now(),
	}

	if err := w.HandleMailMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMailMessage() error = %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "alpe@example.com" {
		t.Errorf("sent = %v, want one mail to alpe@example.com", sender.sent)
	}
}

func TestHandleMailMessage_SenderError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	w := NewMailWorker(sender)

	err := w.HandleMailMessage(context.Background(), amqp.NewMailMessage("a@b.c", "s", "b"))
	if err == nil {
		t.Fatal("HandleMailMessage() should propagate sender errors for requeue")
	}
}
