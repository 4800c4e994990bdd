package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"studio/internal/core"
)

const dashboardKey = "dashboard"

type dashboardPage struct {
	Flash    *Flash
	Username string
	Totals   core.Totals
	Recent   []core.Expense
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := s.dashCache.Get(dashboardKey)
	if !ok {
		totals, err := s.ledger.Totals(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Totals failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		recent, err := s.ledger.RecentExpenses(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Recent expenses failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		view = dashboardView{Totals: totals, Recent: recent}
		s.dashCache.Set(dashboardKey, view)
	}

	s.render(w, r, "dashboard.html", dashboardPage{
		Flash:    popFlash(w, r),
		Username: currentUser(r.Context()),
		Totals:   view.Totals,
		Recent:   view.Recent,
	})
}

type formPage struct {
	Flash    *Flash
	Username string
}

func (s *Server) handleAddExpenseForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "add_expense.html", formPage{Flash: popFlash(w, r), Username: currentUser(r.Context())})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	_, err := s.ledger.AddExpense(r.Context(),
		currentUser(r.Context()),
		r.Form.Get("description"),
		r.Form.Get("amount"),
		r.Form.Get("date"),
		r.Form.Get("urgency"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			setFlash(w, "error", "Invalid amount or date")
			http.Redirect(w, r, "/add", http.StatusSeeOther)
			return
		}
		slog.ErrorContext(r.Context(), "Add expense failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.dashCache.Clear()
	setFlash(w, "success", "Expense added")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleAddIncomeForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "add_income.html", formPage{Flash: popFlash(w, r), Username: currentUser(r.Context())})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	_, err := s.ledger.AddIncome(r.Context(),
		currentUser(r.Context()),
		r.Form.Get("description"),
		r.Form.Get("amount"),
		r.Form.Get("date"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			setFlash(w, "error", "Invalid amount or date")
			http.Redirect(w, r, "/add_income", http.StatusSeeOther)
			return
		}
		slog.ErrorContext(r.Context(), "Add income failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.dashCache.Clear()
	setFlash(w, "success", "Income added")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

type expensesPage struct {
	Flash    *Flash
	Username string
	Expenses []core.Expense
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledger.ListExpenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "expenses.html", expensesPage{
		Flash:    popFlash(w, r),
		Username: currentUser(r.Context()),
		Expenses: expenses,
	})
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.TogglePaid(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Toggle paid failed", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.dashCache.Clear()
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.dashCache.Clear()
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// backTo keeps toggle and delete on the page they were triggered from.
func backTo(r *http.Request) string {
	_ = r.ParseForm()
	next := r.Form.Get("next")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/dashboard"
}
