package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"studio/internal/auth"
	"studio/internal/ledger"
	"studio/internal/store/sqlite"
)

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.EnsureAllowedUsers(context.Background(), []string{"alpe", "bastos"}))

	authSvc := auth.NewService(st, st, noopMailer{})
	ledgerSvc := ledger.NewService(st)

	srv := NewServer(":0", authSvc, ledgerSvc, "test-secret")
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return ts, st
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func get(t *testing.T, c *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func postForm(t *testing.T, c *http.Client, url string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(url, form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t)

	resp, body := get(t, c, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body)

	resp, body = get(t, c, ts.URL+"/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body)
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t)

	for _, path := range []string{"/", "/dashboard", "/expenses", "/add", "/add_income"} {
		resp, body := get(t, c, ts.URL+path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Contains(t, body, "Sign in", path)
	}
}

func TestLoginFailureIsOpaque(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "pw"},
		{"allow-listed but unregistered", "bastos", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t)
			_, body := postForm(t, c, ts.URL+"/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			require.Contains(t, body, "Invalid username or password")
		})
	}
}

func TestRegisterLoginAndLedgerFlow(t *testing.T) {
	ts, st := newTestServer(t)
	c := newClient(t)

	_, body := postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
		"email":    {"alpe@example.com"},
	})
	require.Contains(t, body, "Registration complete")

	// Registering twice is rejected.
	_, body = postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"alpe"},
		"password": {"other"},
	})
	require.Contains(t, body, "already registered")

	// Outsiders cannot register at all.
	_, body = postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"stranger"},
		"password": {"pw"},
	})
	require.Contains(t, body, "not allowed")

	_, body = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
	})
	require.Contains(t, body, "Dashboard")

	_, body = postForm(t, c, ts.URL+"/add_income", url.Values{
		"description": {"salary"},
		"amount":      {"500"},
		"date":        {"2024-03-01"},
	})
	require.Contains(t, body, "Income added")

	_, body = postForm(t, c, ts.URL+"/add", url.Values{
		"description": {"rent"},
		"amount":      {"200"},
		"date":        {"2024-03-02"},
		"urgency":     {"high"},
	})
	require.Contains(t, body, "Expense added")

	// income 500, spent 0, pending 200, available 500
	_, body = get(t, c, ts.URL+"/dashboard")
	require.Contains(t, body, "rent")
	require.Contains(t, body, ">500<")
	require.Contains(t, body, ">200<")

	expenses, err := st.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	_, body = postForm(t, c, fmt.Sprintf("%s/toggle_paid/%d", ts.URL, expenses[0].ID), url.Values{
		"next": {"/dashboard"},
	})
	// available drops to 300 once the expense is paid
	require.Contains(t, body, ">300<")
	require.Contains(t, body, "Mark unpaid")

	_, body = postForm(t, c, fmt.Sprintf("%s/delete/%d", ts.URL, expenses[0].ID), url.Values{
		"next": {"/expenses"},
	})
	require.Contains(t, body, "No expenses yet")

	_, body = get(t, c, ts.URL+"/logout")
	require.Contains(t, body, "Sign in")

	resp, _ := get(t, c, ts.URL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t)

	_, body := postForm(t, c, ts.URL+"/forgot", url.Values{"username": {"nobody"}})
	require.Contains(t, body, "Unknown user")

	_, _ = postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
		"email":    {"alpe@example.com"},
	})

	_, body = postForm(t, c, ts.URL+"/forgot", url.Values{"username": {"alpe"}})
	require.Contains(t, body, "temporary password has been emailed")
}

func TestInvalidExpenseInput(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t)

	_, _ = postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
	})
	_, _ = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
	})

	_, body := postForm(t, c, ts.URL+"/add", url.Values{
		"description": {"bad"},
		"amount":      {"not-a-number"},
	})
	require.Contains(t, body, "Invalid amount or date")
}

func TestTamperedSessionCookieRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/dashboard", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "forged.c2lnbmF0dXJl"})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestBadIDIsRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t)

	_, _ = postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
	})
	_, _ = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {"alpe"},
		"password": {"hunter2"},
	})

	resp, _ := postForm(t, c, ts.URL+"/toggle_paid/abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	if !strings.Contains(resp.Request.URL.Path, "/toggle_paid/") {
		t.Errorf("unexpected final URL %s", resp.Request.URL)
	}
}
