package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Low    Urgency = 0
	Medium Urgency = 1
	High   Urgency = 2
)

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

type (
	// Urgency is the ordinal urgency of an expense.
	Urgency int

	// User is a credential record. Usernames come from a fixed allow-list
	// seeded at startup; PasswordHash and Email stay empty until the user
	// completes one-time registration.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Email        string
		Registered   bool
	}

	// Expense is a single spend record. Owner is the session identity at
	// creation time, recorded but not enforced as an access boundary.
	Expense struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Urgency     Urgency
		Owner       string
		Paid        bool
	}

	// Income is a single cash-in record. Created only, never updated.
	Income struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Owner       string
	}

	// Totals is the aggregate view shown on the dashboard.
	// Available = Income - Spent; Pending does not count against it.
	Totals struct {
		Income    decimal.Decimal
		Spent     decimal.Decimal
		Pending   decimal.Decimal
		Available decimal.Decimal
	}
)

var (
	ErrNotAllowed         = errors.New("username not allowed")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
)

func (u Urgency) String() string {
	switch u {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// IsValid returns true for the three known urgency levels.
func (u Urgency) IsValid() bool {
	return u >= Low && u <= High
}

// ZeroTotals returns totals for an empty ledger, all sums zero.
func ZeroTotals() Totals {
	zero := decimal.Zero
	return Totals{Income: zero, Spent: zero, Pending: zero, Available: zero}
}

// ComputeTotals folds incomes and expenses into the dashboard aggregates.
// Only paid expenses count as spent; unpaid ones accumulate as pending.
func ComputeTotals(incomes []Income, expenses []Expense) Totals {
	t := ZeroTotals()
	for _, in := range incomes {
		t.Income = t.Income.Add(in.Amount)
	}
	for _, e := range expenses {
		if e.Paid {
			t.Spent = t.Spent.Add(e.Amount)
		} else {
			t.Pending = t.Pending.Add(e.Amount)
		}
	}
	t.Available = t.Income.Sub(t.Spent)
	return t
}
