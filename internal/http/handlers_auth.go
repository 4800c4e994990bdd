package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/core"
)

type authPage struct {
	Flash    *Flash
	Username string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", authPage{Flash: popFlash(w, r)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")

	token, err := s.auth.Login(r.Context(), username, password)
	if errors.Is(err, core.ErrInvalidCredentials) {
		setFlash(w, "error", "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if token, err := auth.VerifyToken(cookie.Value, s.secret); err == nil {
			if err := s.auth.Logout(r.Context(), token); err != nil {
				slog.ErrorContext(r.Context(), "Logout failed", "error", err)
			}
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", authPage{Flash: popFlash(w, r)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")
	email := strings.TrimSpace(r.Form.Get("email"))

	if username == "" || password == "" {
		setFlash(w, "error", "Username and password are required")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	err := s.auth.Register(r.Context(), username, password, email)
	switch {
	case errors.Is(err, core.ErrNotAllowed):
		setFlash(w, "error", "This username is not allowed to register")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case errors.Is(err, core.ErrAlreadyRegistered):
		setFlash(w, "error", "This username is already registered")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "success", "Registration complete, you can log in now")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleForgotForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "forgot.html", authPage{Flash: popFlash(w, r)})
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.Form.Get("username"))

	err := s.auth.Forgot(r.Context(), username)
	switch {
	case errors.Is(err, core.ErrNotFound):
		setFlash(w, "error", "Unknown user or no email on file")
		http.Redirect(w, r, "/forgot", http.StatusSeeOther)
		return
	case errors.Is(err, auth.ErrMailDelivery):
		// The password was already reset, tell the user the mail part failed.
		setFlash(w, "error", "Password was reset but the email could not be sent")
		http.Redirect(w, r, "/forgot", http.StatusSeeOther)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Password recovery failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "success", "A temporary password has been emailed to you")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
