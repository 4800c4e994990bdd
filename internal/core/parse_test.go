package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain integer", in: "500", want: "500"},
		{name: "dot decimal", in: "12.34", want: "12.34"},
		{name: "comma decimal", in: "12,34", want: "12.34"},
		{name: "negative allowed", in: "-3.50", want: "-3.5"},
		{name: "leading whitespace", in: "  7.25", want: "7.25"},
		{name: "empty", in: "", wantErr: true},
		{name: "non numeric", in: "abc", wantErr: true},
		{name: "two separators", in: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate valid date: %v", err)
	}
	if got.Format(DateLayout) != "2024-03-15" {
		t.Errorf("ParseDate = %s, want 2024-03-15", got.Format(DateLayout))
	}

	if _, err := ParseDate("15/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate malformed error = %v, want ErrInvalidDate", err)
	}

	// Empty input defaults to today.
	today, err := ParseDate("")
	if err != nil {
		t.Fatalf("ParseDate empty: %v", err)
	}
	if today.Format(DateLayout) != time.Now().UTC().Format(DateLayout) &&
		today.Format(DateLayout) != time.Now().Format(DateLayout) {
		t.Errorf("ParseDate empty = %s, want today", today.Format(DateLayout))
	}
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in   string
		want Urgency
	}{
		{"", Low},
		{"0", Low},
		{"1", Medium},
		{"2", High},
		{"9", High},
		{"-1", Low},
		{"high", High},
		{"medium", Medium},
		{"nonsense", Low},
	}
	for _, tt := range tests {
		if got := ParseUrgency(tt.in); got != tt.want {
			t.Errorf("ParseUrgency(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	if got := ComputeTotals(nil, nil); !got.Available.IsZero() || !got.Income.IsZero() || !got.Spent.IsZero() || !got.Pending.IsZero() {
		t.Fatalf("empty ledger totals = %+v, want all zero", got)
	}

	incomes := []Income{
		{Amount: mustAmount(t, "500")},
		{Amount: mustAmount(t, "120.50")},
	}
	expenses := []Expense{
		{Amount: mustAmount(t, "200"), Paid: false},
		{Amount: mustAmount(t, "80.25"), Paid: true},
		{Amount: mustAmount(t, "19.75"), Paid: true},
	}

	got := ComputeTotals(incomes, expenses)
	if got.Income.String() != "620.5" {
		t.Errorf("Income = %s, want 620.5", got.Income)
	}
	if got.Spent.String() != "100" {
		t.Errorf("Spent = %s, want 100", got.Spent)
	}
	if got.Pending.String() != "200" {
		t.Errorf("Pending = %s, want 200", got.Pending)
	}
	if got.Available.String() != "520.5" {
		t.Errorf("Available = %s, want 520.5", got.Available)
	}
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := ParseAmount(s)
	if err != nil {
		t.Fatalf("ParseAmount(%q): %v", s, err)
	}
	return v
}
