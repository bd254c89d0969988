// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/academy-backend/internal/auth"
	"github.com/carterperez-dev/academy-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.Account, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toAccount(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.Account, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toAccount(user), nil
}

func (s *Service) RecordLoginSuccess(ctx context.Context, id string) error {
	return s.repo.RecordLoginSuccess(ctx, id)
}

func (s *Service) RecordLoginFailure(ctx context.Context, id string) error {
	return s.repo.RecordLoginFailure(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Institution != nil {
		user.Institution = *req.Institution
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUserRole changes a target account's role. Admins cannot change
// their own role; the guard runs before any write.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorID, targetID, role string,
) (*User, error) {
	if actorID == targetID {
		return nil, fmt.Errorf(
			"update role: cannot change own role: %w",
			core.ErrForbidden,
		)
	}

	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	if err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, targetID)
}

func (s *Service) UpdateUserStatus(
	ctx context.Context,
	actorID, targetID, status string,
) (*User, error) {
	if actorID == targetID {
		return nil, fmt.Errorf(
			"update status: cannot change own status: %w",
			core.ErrForbidden,
		)
	}

	if !ValidStatus(status) {
		return nil, fmt.Errorf(
			"update status: invalid status %q: %w",
			status,
			core.ErrInvalidInput,
		)
	}

	if err := s.repo.UpdateStatus(ctx, targetID, status); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, targetID)
}

func (s *Service) DeleteUser(
	ctx context.Context,
	actorID, targetID string,
) error {
	if actorID == targetID {
		return fmt.Errorf(
			"delete user: cannot delete own account: %w",
			core.ErrForbidden,
		)
	}

	return s.repo.Delete(ctx, targetID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func toAccount(u *User) *auth.Account {
	return &auth.Account{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
	}
}

var _ auth.UserProvider = (*Service)(nil)
