// Package auth implements registration, login sessions and password
// recovery on top of the credential and session stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studio/internal/core"
	"studio/internal/mail"
	"studio/internal/store"
)

// SessionTTL is how long a login session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// ErrMailDelivery means the password was reset but the recovery mail
// could not be delivered.
var ErrMailDelivery = errors.New("recovery mail delivery failed")

type Service struct {
	creds    store.CredentialStore
	sessions store.SessionStore
	mailer   mail.Mailer
}

func NewService(creds store.CredentialStore, sessions store.SessionStore, mailer mail.Mailer) *Service {
	return &Service{
		creds:    creds,
		sessions: sessions,
		mailer:   mailer,
	}
}

// Register claims an allow-listed username with a password and email.
// Returns core.ErrNotAllowed for unknown usernames and
// core.ErrAlreadyRegistered for already-claimed ones.
func (s *Service) Register(ctx context.Context, username, password, email string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.creds.CompleteRegistration(ctx, username, string(hash), email); err != nil {
		return err
	}

	slog.InfoContext(ctx, "User registered", "username", username)
	return nil
}

// Login checks credentials and opens a session. Every failure mode
// collapses into core.ErrInvalidCredentials so callers cannot probe
// which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.creds.GetUser(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}

	if !user.Registered || user.PasswordHash == "" {
		return "", core.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", core.ErrInvalidCredentials
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.CreateSession(ctx, token, username, time.Now().Add(SessionTTL)); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "username", username)
	return token, nil
}

// Logout closes the session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to its username.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	return s.sessions.GetSession(ctx, token)
}

// Forgot resets the password to a random temporary one and mails it to
// the user. The reset is committed before the mail attempt, so a
// delivery failure (ErrMailDelivery) still leaves the new password in
// effect.
func (s *Service) Forgot(ctx context.Context, username string) error {
	user, err := s.creds.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if !user.Registered || user.Email == "" {
		return core.ErrNotFound
	}

	tempPassword, err := NewTempPassword()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash temporary password: %w", err)
	}

	if err := s.creds.SetPassword(ctx, username, string(hash)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	body := mail.RecoveryBody(username, tempPassword)
	if err := s.mailer.Send(ctx, user.Email, mail.RecoverySubject, body); err != nil {
		slog.ErrorContext(ctx, "Recovery mail failed", "username", username, "error", err)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	slog.InfoContext(ctx, "Recovery mail sent", "username", username)
	return nil
}
