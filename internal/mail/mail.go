// Package mail delivers outbound mail either directly over SMTP or
// through the AMQP outbox consumed by the worker.
package mail

import (
	"context"
	"fmt"
)

// Mailer sends a single message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecoverySubject is the subject line of the password recovery mail.
const RecoverySubject = "Password recovery"

// RecoveryBody renders the body of the password recovery mail.
func RecoveryBody(username, tempPassword string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYour temporary password is: %s\n\nLog in and change it as soon as possible.\n",
		username, tempPassword)
}
