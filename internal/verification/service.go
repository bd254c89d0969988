// AngelaMos | 2026
// service.go

package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/academy-backend/internal/auth"
	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/user"
)

var _ auth.PendingChecker = (*Service)(nil)

var (
	ErrAlreadyRegistered     = errors.New("email already registered")
	ErrVerificationPending   = errors.New("verification already pending")
	ErrNoPendingVerification = errors.New("no pending verification")
)

// UserStore is the slice of the user repository the verification flows
// touch: existence checks before staging a signup, and the reset-code
// fields for password recovery.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetResetCode(ctx context.Context, email, code string, expiresAt time.Time) error
	ConsumeResetCode(ctx context.Context, email, code, passwordHash string) error
}

// Mailer delivers one-time codes. Failures are logged and swallowed so
// a flaky SMTP relay never blocks a signup or reset.
type Mailer interface {
	VerificationCode(ctx context.Context, email, name, code string, expiresAt time.Time) error
	PasswordResetCode(ctx context.Context, email, name, code string, expiresAt time.Time) error
}

type Service struct {
	repo    Repository
	users   UserStore
	mailer  Mailer
	codeTTL time.Duration
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	users UserStore,
	mailer Mailer,
	codeTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		mailer:  mailer,
		codeTTL: codeTTL,
		logger:  logger,
	}
}

// BeginSignup stages a pending verification and emails the code. The
// account itself is not created until the code is redeemed.
func (s *Service) BeginSignup(
	ctx context.Context,
	req *SignupRequest,
) error {
	email := strings.ToLower(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("begin signup: %w", err)
	}
	if exists {
		return ErrAlreadyRegistered
	}

	// A stale pending row would block the insert below, so clear it
	// first. An unexpired one stays and surfaces as a conflict.
	if err := s.repo.DeleteExpiredByEmail(ctx, email); err != nil {
		return fmt.Errorf("begin signup: %w", err)
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("begin signup: %w", err)
	}

	code, err := core.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("begin signup: %w", err)
	}

	pending := &PendingVerification{
		Email:        email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Institution:  req.Institution,
		Code:         code,
		ExpiresAt:    time.Now().Add(s.codeTTL),
	}

	if err := s.repo.Create(ctx, pending); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return ErrVerificationPending
		}
		return fmt.Errorf("begin signup: %w", err)
	}

	s.sendVerificationCode(ctx, pending)

	return nil
}

// ResendCode rotates the code on an existing pending verification and
// extends its expiry window.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	email = strings.ToLower(email)

	pending, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrNoPendingVerification
		}
		return fmt.Errorf("resend code: %w", err)
	}

	code, err := core.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("resend code: %w", err)
	}

	if err := s.repo.ReplaceCode(ctx, email, code, time.Now().Add(s.codeTTL)); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrNoPendingVerification
		}
		return fmt.Errorf("resend code: %w", err)
	}

	pending.Code = code
	pending.ExpiresAt = time.Now().Add(s.codeTTL)
	s.sendVerificationCode(ctx, pending)

	return nil
}

// RedeemCode promotes a pending verification into a confirmed account.
// The code is single-use: concurrent redemptions race on the same row
// and exactly one creates the account.
func (s *Service) RedeemCode(
	ctx context.Context,
	email, code string,
) (*user.User, error) {
	email = strings.ToLower(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("redeem code: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	promoted, err := s.repo.Promote(ctx, email, code)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "account confirmed",
		slog.String("user_id", promoted.ID),
	)

	return promoted, nil
}

// BeginPasswordReset stages a one-time code on a confirmed account.
// An unknown email succeeds silently so the endpoint cannot be used to
// probe for accounts.
func (s *Service) BeginPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.logger.DebugContext(ctx, "password reset for unknown email")
			return nil
		}
		return fmt.Errorf("begin password reset: %w", err)
	}

	code, err := core.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("begin password reset: %w", err)
	}

	expiresAt := time.Now().Add(s.codeTTL)
	if err := s.users.SetResetCode(ctx, email, code, expiresAt); err != nil {
		return fmt.Errorf("begin password reset: %w", err)
	}

	if err := s.mailer.PasswordResetCode(ctx, u.Email, u.FullName, code, expiresAt); err != nil {
		s.logger.WarnContext(ctx, "password reset email failed",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// RedeemPasswordReset swaps the password if the code matches and has
// not expired. The reset fields clear in the same statement, so the
// code cannot be replayed.
func (s *Service) RedeemPasswordReset(
	ctx context.Context,
	email, code, newPassword string,
) error {
	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("redeem password reset: %w", err)
	}

	if err := s.users.ConsumeResetCode(ctx, strings.ToLower(email), code, hash); err != nil {
		return err
	}

	return nil
}

// PendingCredential reports the staged password hash for an email with
// an unexpired pending verification. Login uses it to tell an
// unconfirmed signup apart from a bad password.
func (s *Service) PendingCredential(
	ctx context.Context,
	email string,
) (string, bool, error) {
	pending, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("pending credential: %w", err)
	}

	if pending.IsExpired() {
		return "", false, nil
	}

	return pending.PasswordHash, true, nil
}

// RunSweeper deletes expired pending verifications on a fixed interval
// until the context is cancelled. Redemption already checks expiry at
// the moment of use; the sweep only keeps the table small.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := s.repo.PurgeExpired(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "verification sweep failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if purged > 0 {
				s.logger.DebugContext(ctx, "purged expired verifications",
					slog.Int64("count", purged),
				)
			}
		}
	}
}

func (s *Service) sendVerificationCode(
	ctx context.Context,
	pending *PendingVerification,
) {
	err := s.mailer.VerificationCode(
		ctx,
		pending.Email,
		pending.FullName,
		pending.Code,
		pending.ExpiresAt,
	)
	if err != nil {
		s.logger.WarnContext(ctx, "verification email failed",
			slog.String("error", err.Error()),
		)
	}
}
