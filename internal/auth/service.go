// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/middleware"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("email verification required")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrAccountSuspended     = errors.New("account suspended")
	ErrInvalidSession       = errors.New("invalid session")
)

type Account struct {
	ID            string
	Email         string
	FullName      string
	PasswordHash  string
	Role          string
	Status        string
	EmailVerified bool
}

func (a *Account) IsActive() bool {
	return a.Status == "active"
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	RecordLoginSuccess(ctx context.Context, id string) error
	RecordLoginFailure(ctx context.Context, id string) error
}

// PendingChecker reports whether an unexpired signup verification is
// staged for an email, so login can tell the user to check their inbox
// instead of returning a generic failure.
type PendingChecker interface {
	PendingCredential(
		ctx context.Context,
		email string,
	) (passwordHash string, ok bool, err error)
}

type Service struct {
	tokens  *TokenManager
	users   UserProvider
	pending PendingChecker
	logger  *slog.Logger
}

func NewService(
	tokens *TokenManager,
	users UserProvider,
	pending PendingChecker,
	logger *slog.Logger,
) *Service {
	return &Service{
		tokens:  tokens,
		users:   users,
		pending: pending,
		logger:  logger,
	}
}

// Login checks credentials in a fixed order. Account-existence and
// password failures collapse into ErrInvalidCredentials so callers
// cannot enumerate accounts; ErrVerificationRequired is the deliberate
// exception, since the user has to know to check their email.
// The failed-attempt counter moves only on a password mismatch.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	account, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.failWithoutAccount(ctx, req.Email, req.Password)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&account.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		if recErr := s.users.RecordLoginFailure(ctx, account.ID); recErr != nil {
			s.logger.Warn("record login failure",
				"user_id", account.ID,
				"error", recErr,
			)
		}
		return nil, ErrInvalidCredentials
	}

	_ = newHash // rehash upgrades are applied on password change, not login

	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if !account.IsActive() {
		return nil, ErrAccountSuspended
	}

	if err := s.users.RecordLoginSuccess(ctx, account.ID); err != nil {
		s.logger.Warn("record login success",
			"user_id", account.ID,
			"error", err,
		)
	}

	return s.createAuthResponse(account)
}

// failWithoutAccount handles the no-confirmed-account branch. A staged
// pending verification whose password matches gets the distinguishable
// verification-required signal; everything else burns a dummy hash
// verification and fails generically.
func (s *Service) failWithoutAccount(
	ctx context.Context,
	email, password string,
) error {
	pendingHash, ok, err := s.pending.PendingCredential(ctx, email)
	if err != nil {
		s.logger.Warn("pending credential check", "error", err)
	}

	if ok {
		match, verifyErr := core.VerifyPassword(password, pendingHash)
		if verifyErr == nil && match {
			return ErrVerificationRequired
		}
		return ErrInvalidCredentials
	}

	//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
	_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
	return ErrInvalidCredentials
}

// Refresh re-reads the account so role and status changes propagate
// into the new token without waiting for natural expiry. A deleted
// account invalidates the session.
func (s *Service) Refresh(
	ctx context.Context,
	token string,
) (*AuthResponse, error) {
	claims, err := s.tokens.VerifySessionToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", ErrInvalidSession)
	}

	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", ErrInvalidSession)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !account.IsActive() {
		return nil, ErrAccountSuspended
	}

	return s.createAuthResponse(account)
}

func (s *Service) VerifySessionToken(
	ctx context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	return s.tokens.VerifySessionToken(ctx, token)
}

func (s *Service) createAuthResponse(account *Account) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.CreateSessionToken(account)
	if err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:       account.ID,
			Email:    account.Email,
			FullName: account.FullName,
			Role:     account.Role,
			Status:   account.Status,
		},
		Session: SessionResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresIn: int(time.Until(expiresAt) / time.Second),
			ExpiresAt: expiresAt,
		},
	}, nil
}
