// Package store defines the persistence ports consumed by the auth and
// ledger services. Two interchangeable implementations exist: an
// embedded-file SQLite store and a networked Postgres store, selected by
// configuration through the backend factory.
package store

import (
	"context"
	"errors"
	"time"

	"studio/internal/core"
)

// ErrSessionNotFound is returned when a session token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Ports for the relational store.
type (
	// CredentialStore holds one record per allowed username. Registration
	// and password updates run inside a transaction on every
	// implementation.
	CredentialStore interface {
		// EnsureAllowedUsers seeds the allow-list, inserting missing
		// usernames as unregistered. Existing rows are left untouched.
		EnsureAllowedUsers(ctx context.Context, usernames []string) error

		// GetUser returns the credential record for username.
		// Returns core.ErrNotFound when the username is not on the allow-list.
		GetUser(ctx context.Context, username string) (core.User, error)

		// CompleteRegistration performs the one-time registration
		// transition. Returns core.ErrNotAllowed when the username was
		// never seeded and core.ErrAlreadyRegistered on re-registration.
		CompleteRegistration(ctx context.Context, username, passwordHash, email string) error

		// SetPassword overwrites the stored password hash.
		// Returns core.ErrNotFound when the username is absent.
		SetPassword(ctx context.Context, username, passwordHash string) error
	}

	// LedgerStore holds the financial facts.
	LedgerStore interface {
		AddExpense(ctx context.Context, e core.Expense) (int64, error)
		AddIncome(ctx context.Context, in core.Income) (int64, error)

		// ListExpenses returns all expenses ordered by date descending,
		// newest id first among equal dates.
		ListExpenses(ctx context.Context) ([]core.Expense, error)

		// RecentExpenses returns at most limit expenses in the same order.
		RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error)

		ListIncomes(ctx context.Context) ([]core.Income, error)

		// TogglePaid flips the paid flag. Unknown ids are a silent no-op.
		TogglePaid(ctx context.Context, id int64) error

		// DeleteExpense removes the row if present. Unknown ids are a
		// silent no-op.
		DeleteExpense(ctx context.Context, id int64) error
	}

	// SessionStore backs the session gate.
	SessionStore interface {
		CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error

		// GetSession resolves a token to its username.
		// Returns ErrSessionNotFound for unknown or expired tokens.
		GetSession(ctx context.Context, token string) (string, error)

		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context) error
	}
)

// Store is the unified persistence interface the application wires up.
type Store interface {
	CredentialStore
	LedgerStore
	SessionStore

	Close() error
}
