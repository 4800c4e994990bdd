// Package core provides the domain model shared by the auth and ledger
// services, along with parsing helpers for user-entered form values.
package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-entered monetary amount. It accepts both dot
// (12.34) and comma (12,34) decimal separators and keeps the sign.
// Returns ErrInvalidAmount for anything that is not a decimal number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseDate parses a calendar date in DateLayout form. An empty string
// defaults to today, matching the form behaviour where the date field is
// optional.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseUrgency parses the urgency form value. Empty input defaults to Low;
// out-of-range values are clamped into the known levels.
func ParseUrgency(s string) Urgency {
	s = strings.TrimSpace(s)
	if s == "" {
		return Low
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		switch strings.ToLower(s) {
		case "high":
			return High
		case "medium":
			return Medium
		default:
			return Low
		}
	}
	u := Urgency(n)
	if u < Low {
		return Low
	}
	if u > High {
		return High
	}
	return u
}
