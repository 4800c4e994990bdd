// Package sqlite implements the store ports on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"studio/internal/core"
	"studio/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens the database, runs migrations and returns a ready store.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writes
	// and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ---- CredentialStore ----

func (s *Store) EnsureAllowedUsers(ctx context.Context, usernames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range usernames {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (username, registered) VALUES (?, 0)`, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.InfoContext(ctx, "Allow-list seeded", "users", len(usernames))
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (core.User, error) {
	var (
		u     core.User
		hash  sql.NullString
		email sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, registered FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &hash, &email, &u.Registered)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.PasswordHash = hash.String
	u.Email = email.String
	return u, nil
}

func (s *Store) CompleteRegistration(ctx context.Context, username, passwordHash, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	var registered bool
	err = tx.QueryRowContext(ctx,
		`SELECT registered FROM users WHERE username = ?`, username).Scan(&registered)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotAllowed
	}
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if registered {
		return core.ErrAlreadyRegistered
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, email = ?, registered = 1 WHERE username = ?`,
		passwordHash, email, username); err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set password rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- LedgerStore ----

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (description, amount, date, urgency, owner, paid) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Description, e.Amount.String(), e.Date.Format(core.DateLayout), int(e.Urgency), e.Owner, e.Paid)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	return id, nil
}

func (s *Store) AddIncome(ctx context.Context, in core.Income) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO incomes (description, amount, date, owner) VALUES (?, ?, ?, ?)`,
		in.Description, in.Amount.String(), in.Date.Format(core.DateLayout), in.Owner)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income id: %w", err)
	}
	return id, nil
}

const expenseColumns = `id, description, amount, date, urgency, owner, paid`

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, date, owner FROM incomes ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []core.Income
	for rows.Next() {
		var (
			in     core.Income
			amount string
			date   string
		)
		if err := rows.Scan(&in.ID, &in.Description, &amount, &date, &in.Owner); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("income %d amount %q: %w", in.ID, amount, err)
		}
		if in.Date, err = time.Parse(core.DateLayout, date); err != nil {
			return nil, fmt.Errorf("income %d date %q: %w", in.ID, date, err)
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

func (s *Store) TogglePaid(ctx context.Context, id int64) error {
	// Single statement: unknown ids simply affect zero rows.
	if _, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET paid = 1 - paid WHERE id = ?`, id); err != nil {
		return fmt.Errorf("toggle paid: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ---- SessionStore ----

func (s *Store) CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, username, expires_at) VALUES (?, ?, ?)`,
		token, username, expiresAt.UTC()); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx,
		`SELECT username FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC()).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return username, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			amount  string
			date    string
			urgency int
		)
		if err := rows.Scan(&e.ID, &e.Description, &amount, &date, &urgency, &e.Owner, &e.Paid); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		var err error
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("expense %d amount %q: %w", e.ID, amount, err)
		}
		if e.Date, err = time.Parse(core.DateLayout, date); err != nil {
			return nil, fmt.Errorf("expense %d date %q: %w", e.ID, date, err)
		}
		e.Urgency = core.Urgency(urgency)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
