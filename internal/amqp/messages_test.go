package amqp

import (
	"testing"
	"time"
)

func TestNewMailMessage(t *testing.T) {
	msg := NewMailMessage("doug@example.com", "Password recovery", "hello")

	if msg.To != "doug@example.com" {
		t.Errorf("NewMailMessage() To = %v, want doug@example.com", msg.To)
	}
	if msg.Subject != "Password recovery" {
		t.Errorf("NewMailMessage() Subject = %v, want Password recovery", msg.Subject)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewMailMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewMailMessage() Timestamp should be recent")
	}
}

func TestMailMessage_JSONRoundTrip(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &MailMessage{
		To:        "alpe@example.com",
		Subject:   "Password recovery",
		Body:      "Your temporary password is: abc123",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := MailMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("MailMessageFromJSON() error = %v", err)
	}

	if parsed.To != msg.To || parsed.Subject != msg.Subject || parsed.Body != msg.Body {
		t.Errorf("parsed message = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestMailMessage_InvalidJSON(t *testing.T) {
	if _, err := MailMessageFromJSON([]byte(`{"to": 42}`)); err == nil {
		t.Error("MailMessageFromJSON() should fail with invalid JSON")
	}
}
