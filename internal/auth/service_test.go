package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"studio/internal/core"
	"studio/internal/store"
	"studio/internal/store/sqlite"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeMailer, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.EnsureAllowedUsers(ctx, []string{"alpe", "bastos", "doug"}))

	mailer := &fakeMailer{}
	return NewService(st, st, mailer), mailer, st
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alpe", "hunter2", "alpe@example.com"))

	token, err := svc.Login(ctx, "alpe", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alpe", username)
}

func TestRegister_NotAllowed(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Register(context.Background(), "stranger", "pw", "s@example.com")
	require.ErrorIs(t, err, core.ErrNotAllowed)
}

func TestRegister_OnlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "bastos", "first", "b@example.com"))

	err := svc.Register(ctx, "bastos", "second", "b@example.com")
	require.ErrorIs(t, err, core.ErrAlreadyRegistered)

	// The original password still works.
	_, err = svc.Login(ctx, "bastos", "first")
	require.NoError(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alpe", "hunter2", "alpe@example.com"))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "hunter2"},
		{"allow-listed but unregistered", "doug", "hunter2"},
		{"wrong password", "alpe", "wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			require.ErrorIs(t, err, core.ErrInvalidCredentials)
		})
	}
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alpe", "hunter2", "alpe@example.com"))
	token, err := svc.Login(ctx, "alpe", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, store.ErrSessionNotFound)

	// Logging out again is a no-op.
	require.NoError(t, svc.Logout(ctx, token))
}

func TestForgot(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alpe", "hunter2", "alpe@example.com"))
	require.NoError(t, svc.Forgot(ctx, "alpe"))

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alpe@example.com", mailer.sent[0].to)
	require.Contains(t, mailer.sent[0].body, "temporary password")

	// The old password no longer works, the mailed one does.
	_, err := svc.Login(ctx, "alpe", "hunter2")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)

	temp := tempPasswordFromBody(t, mailer.sent[0].body)
	_, err = svc.Login(ctx, "alpe", temp)
	require.NoError(t, err)
}

func TestForgot_UnknownUser(t *testing.T) {
	svc, mailer, _ := newTestService(t)

	err := svc.Forgot(context.Background(), "nobody")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.Empty(t, mailer.sent)
}

func TestForgot_UnregisteredUser(t *testing.T) {
	svc, mailer, _ := newTestService(t)

	err := svc.Forgot(context.Background(), "doug")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.Empty(t, mailer.sent)
}

func TestForgot_MailFailureStillResets(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alpe", "hunter2", "alpe@example.com"))

	mailer.err = errors.New("smtp down")
	err := svc.Forgot(ctx, "alpe")
	require.ErrorIs(t, err, ErrMailDelivery)

	// The reset was committed before the delivery attempt.
	_, err = svc.Login(ctx, "alpe", "hunter2")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func tempPasswordFromBody(t *testing.T, body string) string {
	t.Helper()
	const marker = "temporary password is: "
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	return strings.TrimSpace(strings.SplitN(rest, "\n", 2)[0])
}
