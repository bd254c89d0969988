// AngelaMos | 2026
// service_test.go

package verification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/user"
)

type fakeRepo struct {
	mu      sync.Mutex
	pending map[string]*PendingVerification

	createErr  error
	promoteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{pending: map[string]*PendingVerification{}}
}

func (f *fakeRepo) get(email string) (*PendingVerification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[email]
	return p, ok
}

func (f *fakeRepo) put(p *PendingVerification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[p.Email] = p
}

func (f *fakeRepo) Create(_ context.Context, p *PendingVerification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pending[p.Email]; ok {
		return core.ErrDuplicateKey
	}
	f.pending[p.Email] = p
	return nil
}

func (f *fakeRepo) GetByEmail(
	_ context.Context,
	email string,
) (*PendingVerification, error) {
	p, ok := f.get(email)
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ReplaceCode(
	_ context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[email]
	if !ok {
		return core.ErrNotFound
	}
	p.Code = code
	p.ExpiresAt = expiresAt
	return nil
}

func (f *fakeRepo) DeleteExpiredByEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pending[email]; ok && p.IsExpired() {
		delete(f.pending, email)
	}
	return nil
}

func (f *fakeRepo) PurgeExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for email, p := range f.pending {
		if p.IsExpired() {
			delete(f.pending, email)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeRepo) Promote(
	_ context.Context,
	email, code string,
) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[email]
	if !ok || p.Code != code || p.IsExpired() {
		return nil, core.ErrCodeExpired
	}
	if f.promoteErr != nil {
		// Insert failed, pending row survives the rollback.
		return nil, f.promoteErr
	}
	delete(f.pending, email)
	return newConfirmedUser(p), nil
}

type fakeUserStore struct {
	existing map[string]*user.User

	resetEmail   string
	resetCode    string
	resetExpires time.Time
	consumedHash string
}

func newFakeUserStore(users ...*user.User) *fakeUserStore {
	f := &fakeUserStore{existing: map[string]*user.User{}}
	for _, u := range users {
		f.existing[u.Email] = u
	}
	return f
}

func (f *fakeUserStore) GetByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.existing[email]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeUserStore) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	_, ok := f.existing[email]
	return ok, nil
}

func (f *fakeUserStore) SetResetCode(
	_ context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	if _, ok := f.existing[email]; !ok {
		return core.ErrNotFound
	}
	f.resetEmail = email
	f.resetCode = code
	f.resetExpires = expiresAt
	return nil
}

func (f *fakeUserStore) ConsumeResetCode(
	_ context.Context,
	email, code, passwordHash string,
) error {
	if email != f.resetEmail || code != f.resetCode ||
		time.Now().After(f.resetExpires) {
		return core.ErrCodeExpired
	}
	f.consumedHash = passwordHash
	f.resetCode = ""
	return nil
}

type sentMail struct {
	kind  string
	email string
	code  string
}

type fakeMailer struct {
	sent    []sentMail
	sendErr error
}

func (f *fakeMailer) VerificationCode(
	_ context.Context,
	email, _, code string,
	_ time.Time,
) error {
	f.sent = append(f.sent, sentMail{kind: "verification", email: email, code: code})
	return f.sendErr
}

func (f *fakeMailer) PasswordResetCode(
	_ context.Context,
	email, _, code string,
	_ time.Time,
) error {
	f.sent = append(f.sent, sentMail{kind: "reset", email: email, code: code})
	return f.sendErr
}

func newTestService(
	repo *fakeRepo,
	users *fakeUserStore,
	mailer *fakeMailer,
) *Service {
	return NewService(repo, users, mailer, 10*time.Minute, slog.Default())
}

func signupRequest() *SignupRequest {
	return &SignupRequest{
		Email:       "student@example.com",
		Password:    "s3cret-passw0rd",
		FullName:    "Test Student",
		Phone:       "+15550100",
		Institution: "Example University",
	}
}

func confirmedUser(email string) *user.User {
	return &user.User{
		ID:            "user-1",
		Email:         email,
		FullName:      "Existing User",
		Role:          user.RoleUser,
		Status:        user.StatusActive,
		EmailVerified: true,
	}
}

func TestBeginSignupStagesPendingAndSendsCode(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := newTestService(repo, newFakeUserStore(), mailer)

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))

	pending, ok := repo.pending["student@example.com"]
	require.True(t, ok)

	// The password is stored hashed, never verbatim.
	assert.NotEqual(t, "s3cret-passw0rd", pending.PasswordHash)
	match, err := core.VerifyPassword("s3cret-passw0rd", pending.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)

	assert.Len(t, pending.Code, 6)
	assert.WithinDuration(t,
		time.Now().Add(10*time.Minute), pending.ExpiresAt, 5*time.Second)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "verification", mailer.sent[0].kind)
	assert.Equal(t, pending.Code, mailer.sent[0].code)
}

func TestBeginSignupAlreadyRegistered(t *testing.T) {
	users := newFakeUserStore(confirmedUser("student@example.com"))
	svc := newTestService(newFakeRepo(), users, &fakeMailer{})

	err := svc.BeginSignup(context.Background(), signupRequest())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestBeginSignupUnexpiredPendingConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))

	err := svc.BeginSignup(context.Background(), signupRequest())
	assert.ErrorIs(t, err, ErrVerificationPending)
}

func TestBeginSignupReplacesExpiredPending(t *testing.T) {
	repo := newFakeRepo()
	repo.pending["student@example.com"] = &PendingVerification{
		Email:     "student@example.com",
		Code:      "111111",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))

	pending := repo.pending["student@example.com"]
	assert.NotEqual(t, "111111", pending.Code)
	assert.False(t, pending.IsExpired())
}

func TestBeginSignupMailFailureSwallowed(t *testing.T) {
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	svc := newTestService(newFakeRepo(), newFakeUserStore(), mailer)

	assert.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))
}

func TestResendCodeRotates(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := newTestService(repo, newFakeUserStore(), mailer)

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))
	firstCode := repo.pending["student@example.com"].Code

	require.NoError(t, svc.ResendCode(context.Background(), "student@example.com"))

	secondCode := repo.pending["student@example.com"].Code
	assert.NotEqual(t, firstCode, secondCode)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, secondCode, mailer.sent[1].code)
}

func TestResendCodeNoPending(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeUserStore(), &fakeMailer{})

	err := svc.ResendCode(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNoPendingVerification)
}

func TestRedeemCodeCreatesConfirmedAccount(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))
	code := repo.pending["student@example.com"].Code

	created, err := svc.RedeemCode(
		context.Background(), "student@example.com", code)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "student@example.com", created.Email)
	assert.Equal(t, user.RoleUser, created.Role)
	assert.Equal(t, user.StatusActive, created.Status)
	assert.True(t, created.EmailVerified)
	assert.True(t, created.ProfileComplete)
	assert.Zero(t, created.LoginCount)
	assert.Zero(t, created.FailedLoginAttempts)

	// Single use: the pending row is gone.
	_, ok := repo.pending["student@example.com"]
	assert.False(t, ok)
}

func TestRedeemCodeWrongCode(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))

	_, err := svc.RedeemCode(
		context.Background(), "student@example.com", "000000")
	assert.ErrorIs(t, err, core.ErrCodeExpired)

	// A wrong guess does not consume the pending row.
	_, ok := repo.pending["student@example.com"]
	assert.True(t, ok)
}

func TestRedeemCodeExpired(t *testing.T) {
	repo := newFakeRepo()
	repo.pending["student@example.com"] = &PendingVerification{
		Email:     "student@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Second),
	}
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	_, err := svc.RedeemCode(
		context.Background(), "student@example.com", "123456")
	assert.ErrorIs(t, err, core.ErrCodeExpired)
}

func TestRedeemCodeDoubleRedeem(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))
	code := repo.pending["student@example.com"].Code

	_, err := svc.RedeemCode(context.Background(), "student@example.com", code)
	require.NoError(t, err)

	_, err = svc.RedeemCode(context.Background(), "student@example.com", code)
	assert.ErrorIs(t, err, core.ErrCodeExpired)
}

func TestRedeemCodeAlreadyRegistered(t *testing.T) {
	users := newFakeUserStore(confirmedUser("student@example.com"))
	svc := newTestService(newFakeRepo(), users, &fakeMailer{})

	_, err := svc.RedeemCode(
		context.Background(), "student@example.com", "123456")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRedeemCodeDuplicateInsertKeepsPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))
	code := repo.pending["student@example.com"].Code

	// Concurrent redemption raced us to the unique email constraint.
	repo.promoteErr = core.ErrDuplicateKey

	_, err := svc.RedeemCode(context.Background(), "student@example.com", code)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, ok := repo.pending["student@example.com"]
	assert.True(t, ok)
}

func TestPendingCredential(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	hash, ok, err := svc.PendingCredential(
		context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, hash)

	require.NoError(t, svc.BeginSignup(context.Background(), signupRequest()))

	hash, ok, err = svc.PendingCredential(
		context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, hash)

	repo.pending["student@example.com"].ExpiresAt = time.Now().Add(-time.Second)

	_, ok, err = svc.PendingCredential(
		context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBeginPasswordResetUnknownEmailSilent(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(newFakeRepo(), newFakeUserStore(), mailer)

	assert.NoError(t,
		svc.BeginPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	users := newFakeUserStore(confirmedUser("student@example.com"))
	mailer := &fakeMailer{}
	svc := newTestService(newFakeRepo(), users, mailer)

	require.NoError(t,
		svc.BeginPasswordReset(context.Background(), "student@example.com"))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "reset", mailer.sent[0].kind)
	code := mailer.sent[0].code

	err := svc.RedeemPasswordReset(
		context.Background(), "student@example.com", code, "new-passw0rd")
	require.NoError(t, err)

	match, err := core.VerifyPassword("new-passw0rd", users.consumedHash)
	require.NoError(t, err)
	assert.True(t, match)

	// The code cleared on success and cannot be replayed.
	err = svc.RedeemPasswordReset(
		context.Background(), "student@example.com", code, "another-passw0rd")
	assert.ErrorIs(t, err, core.ErrCodeExpired)
}

func TestRedeemPasswordResetWrongCode(t *testing.T) {
	users := newFakeUserStore(confirmedUser("student@example.com"))
	svc := newTestService(newFakeRepo(), users, &fakeMailer{})

	require.NoError(t,
		svc.BeginPasswordReset(context.Background(), "student@example.com"))

	err := svc.RedeemPasswordReset(
		context.Background(), "student@example.com", "000000", "new-passw0rd")
	assert.ErrorIs(t, err, core.ErrCodeExpired)
}

func TestRunSweeperPurges(t *testing.T) {
	repo := newFakeRepo()
	repo.put(&PendingVerification{
		Email:     "stale@example.com",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	svc := newTestService(repo, newFakeUserStore(), &fakeMailer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, ok := repo.get("stale@example.com")
		return !ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
