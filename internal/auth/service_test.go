// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/academy-backend/internal/core"
)

type fakeUsers struct {
	accounts map[string]*Account

	successCalls []string
	failureCalls []string
}

func newFakeUsers(accounts ...*Account) *fakeUsers {
	f := &fakeUsers{accounts: map[string]*Account{}}
	for _, a := range accounts {
		f.accounts[a.Email] = a
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*Account, error) {
	if a, ok := f.accounts[email]; ok {
		return a, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*Account, error) {
	for _, a := range f.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) RecordLoginSuccess(_ context.Context, id string) error {
	f.successCalls = append(f.successCalls, id)
	return nil
}

func (f *fakeUsers) RecordLoginFailure(_ context.Context, id string) error {
	f.failureCalls = append(f.failureCalls, id)
	return nil
}

type fakePending struct {
	hash string
	ok   bool
}

func (f *fakePending) PendingCredential(
	_ context.Context,
	_ string,
) (string, bool, error) {
	return f.hash, f.ok, nil
}

func newTestService(
	t *testing.T,
	users *fakeUsers,
	pending *fakePending,
) *Service {
	t.Helper()
	tm := newTestTokenManager(t, time.Hour)
	return NewService(tm, users, pending, slog.Default())
}

func activeAccount(t *testing.T, password string) *Account {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	return &Account{
		ID:            "user-1",
		Email:         "student@example.com",
		FullName:      "Test Student",
		PasswordHash:  hash,
		Role:          "user",
		Status:        "active",
		EmailVerified: true,
	}
}

func TestLoginSuccess(t *testing.T) {
	users := newFakeUsers(activeAccount(t, "s3cret-passw0rd"))
	svc := newTestService(t, users, &fakePending{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "s3cret-passw0rd",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotEmpty(t, resp.Session.Token)
	assert.Equal(t, "Bearer", resp.Session.TokenType)

	assert.Equal(t, []string{"user-1"}, users.successCalls)
	assert.Empty(t, users.failureCalls)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := newFakeUsers()
	svc := newTestService(t, users, &fakePending{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// No account means no counter to move.
	assert.Empty(t, users.failureCalls)
	assert.Empty(t, users.successCalls)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUsers(activeAccount(t, "s3cret-passw0rd"))
	svc := newTestService(t, users, &fakePending{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, []string{"user-1"}, users.failureCalls)
	assert.Empty(t, users.successCalls)
}

func TestLoginPendingVerification(t *testing.T) {
	hash, err := core.HashPassword("staged-passw0rd")
	require.NoError(t, err)

	users := newFakeUsers()
	svc := newTestService(t, users, &fakePending{hash: hash, ok: true})

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "pending@example.com",
		Password: "staged-passw0rd",
	})
	assert.ErrorIs(t, err, ErrVerificationRequired)
}

func TestLoginPendingVerificationWrongPassword(t *testing.T) {
	hash, err := core.HashPassword("staged-passw0rd")
	require.NoError(t, err)

	users := newFakeUsers()
	svc := newTestService(t, users, &fakePending{hash: hash, ok: true})

	// A wrong guess against a pending signup must stay generic.
	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "pending@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginEmailNotVerified(t *testing.T) {
	account := activeAccount(t, "s3cret-passw0rd")
	account.EmailVerified = false

	users := newFakeUsers(account)
	svc := newTestService(t, users, &fakePending{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "s3cret-passw0rd",
	})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	// The password was correct, so the counter must not move.
	assert.Empty(t, users.failureCalls)
}

func TestLoginSuspendedAccount(t *testing.T) {
	account := activeAccount(t, "s3cret-passw0rd")
	account.Status = "suspended"

	users := newFakeUsers(account)
	svc := newTestService(t, users, &fakePending{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "s3cret-passw0rd",
	})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestRefreshReissuesToken(t *testing.T) {
	account := activeAccount(t, "s3cret-passw0rd")
	users := newFakeUsers(account)
	svc := newTestService(t, users, &fakePending{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "s3cret-passw0rd",
	})
	require.NoError(t, err)

	// Role changes land in the refreshed token.
	account.Role = "admin"

	refreshed, err := svc.Refresh(context.Background(), resp.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", refreshed.User.Role)

	claims, err := svc.VerifySessionToken(
		context.Background(),
		refreshed.Session.Token,
	)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestRefreshDeletedAccount(t *testing.T) {
	account := activeAccount(t, "s3cret-passw0rd")
	users := newFakeUsers(account)
	svc := newTestService(t, users, &fakePending{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "student@example.com",
		Password: "s3cret-passw0rd",
	})
	require.NoError(t, err)

	delete(users.accounts, account.Email)

	_, err = svc.Refresh(context.Background(), resp.Session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRefreshRejectsTamperedToken(t *testing.T) {
	users := newFakeUsers(activeAccount(t, "s3cret-passw0rd"))
	svc := newTestService(t, users, &fakePending{})

	_, err := svc.Refresh(context.Background(), "tampered.token.value")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
