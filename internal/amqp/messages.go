package amqp

import (
	"encoding/json"
	"time"
)

// MailMessage represents an outbound mail queued for asynchronous delivery.
// The worker consumes these and hands them to the SMTP sender.
type MailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMailMessage creates a new mail message stamped with the current time
func NewMailMessage(to, subject, body string) *MailMessage {
	return &MailMessage{
		To:        to,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MailMessageFromJSON creates a message from JSON bytes
func MailMessageFromJSON(data []byte) (*MailMessage, error) {
	var msg MailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
