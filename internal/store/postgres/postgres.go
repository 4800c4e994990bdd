// Package postgres implements the store ports on a networked Postgres
// database via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"studio/internal/core"
	"studio/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New connects, pings, runs migrations and returns a ready store.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- CredentialStore ----

func (s *Store) EnsureAllowedUsers(ctx context.Context, usernames []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range usernames {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (username, registered) VALUES ($1, FALSE) ON CONFLICT (username) DO NOTHING`, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.InfoContext(ctx, "Allow-list seeded", "users", len(usernames))
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (core.User, error) {
	var (
		u     core.User
		hash  *string
		email *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, email, registered FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &hash, &email, &u.Registered)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	if email != nil {
		u.Email = *email
	}
	return u, nil
}

func (s *Store) CompleteRegistration(ctx context.Context, username, passwordHash, email string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var registered bool
	err = tx.QueryRow(ctx,
		`SELECT registered FROM users WHERE username = $1 FOR UPDATE`, username).Scan(&registered)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotAllowed
	}
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if registered {
		return core.ErrAlreadyRegistered
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, email = $2, registered = TRUE WHERE username = $3`,
		passwordHash, email, username); err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, username, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE username = $2`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- LedgerStore ----

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (description, amount, date, urgency, owner, paid)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		e.Description, e.Amount.String(), e.Date.Format(core.DateLayout), int(e.Urgency), e.Owner, e.Paid,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

func (s *Store) AddIncome(ctx context.Context, in core.Income) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO incomes (description, amount, date, owner)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		in.Description, in.Amount.String(), in.Date.Format(core.DateLayout), in.Owner,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	return id, nil
}

const expenseColumns = `id, description, amount, date, urgency, owner, paid`

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := s.pool.Query(ctx,
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
	if _, err := s.pool.Exec(ctx,
		`UPDATE expenses SET paid = NOT paid WHERE id = $1`, id); err != nil {
		return fmt.Errorf("toggle paid: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ---- SessionStore ----

func (s *Store) CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, username, expires_at) VALUES ($1, $2, $3)`,
		token, username, expiresAt.UTC()); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (string, error) {
	var username string
	err := s.pool.QueryRow(ctx,
		`SELECT username FROM sessions WHERE token = $1 AND expires_at > NOW()`,
		token).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return username, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= NOW()`); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

func scanExpenses(rows pgx.Rows) ([]core.Expense, error) {
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
