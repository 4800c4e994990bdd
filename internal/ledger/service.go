// Package ledger implements the expense and income operations on top
// of the ledger store.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"studio/internal/core"
	"studio/internal/store"
)

// RecentLimit is how many expenses the dashboard shows.
const RecentLimit = 10

type Service struct {
	store store.LedgerStore
}

func NewService(st store.LedgerStore) *Service {
	return &Service{store: st}
}

// AddExpense parses the raw form values and records a new unpaid
// expense owned by the given user.
func (s *Service) AddExpense(ctx context.Context, owner, description, amount, date, urgency string) (int64, error) {
	parsedAmount, err := core.ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	parsedDate, err := core.ParseDate(date)
	if err != nil {
		return 0, err
	}

	expense := core.Expense{
		Description: strings.TrimSpace(description),
		Amount:      parsedAmount,
		Date:        parsedDate,
		Urgency:     core.ParseUrgency(urgency),
		Owner:       owner,
		Paid:        false,
	}

	id, err := s.store.AddExpense(ctx, expense)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense added",
		"id", id,
		"owner", owner,
		"amount", parsedAmount.String(),
		"urgency", expense.Urgency.String())
	return id, nil
}

// AddIncome parses the raw form values and records a new income owned
// by the given user.
func (s *Service) AddIncome(ctx context.Context, owner, description, amount, date string) (int64, error) {
	parsedAmount, err := core.ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	parsedDate, err := core.ParseDate(date)
	if err != nil {
		return 0, err
	}

	income := core.Income{
		Description: strings.TrimSpace(description),
		Amount:      parsedAmount,
		Date:        parsedDate,
		Owner:       owner,
	}

	id, err := s.store.AddIncome(ctx, income)
	if err != nil {
		return 0, fmt.Errorf("add income: %w", err)
	}

	slog.InfoContext(ctx, "Income added", "id", id, "owner", owner, "amount", parsedAmount.String())
	return id, nil
}

// ListExpenses returns every expense, newest first.
func (s *Service) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx)
}

// RecentExpenses returns the newest expenses for the dashboard.
func (s *Service) RecentExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.RecentExpenses(ctx, RecentLimit)
}

// ListIncomes returns every income, newest first.
func (s *Service) ListIncomes(ctx context.Context) ([]core.Income, error) {
	return s.store.ListIncomes(ctx)
}

// TogglePaid flips the paid flag on an expense. Unknown ids are a
// silent no-op.
func (s *Service) TogglePaid(ctx context.Context, id int64) error {
	if err := s.store.TogglePaid(ctx, id); err != nil {
		return fmt.Errorf("toggle paid: %w", err)
	}
	slog.InfoContext(ctx, "Expense paid flag toggled", "id", id)
	return nil
}

// DeleteExpense removes an expense. Unknown ids are a silent no-op.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Totals aggregates every income and expense into the dashboard
// figures.
func (s *Service) Totals(ctx context.Context) (core.Totals, error) {
	incomes, err := s.store.ListIncomes(ctx)
	if err != nil {
		return core.ZeroTotals(), fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return core.ZeroTotals(), fmt.Errorf("list expenses: %w", err)
	}
	return core.ComputeTotals(incomes, expenses), nil
}
