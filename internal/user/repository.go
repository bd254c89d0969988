// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/academy-backend/internal/core"
)

const userColumns = `
	id, email, password_hash, full_name, phone, institution,
	role, status, email_verified, profile_complete,
	login_count, failed_login_attempts, last_failed_login, last_login,
	reset_code, reset_code_expires_at, created_at, updated_at`

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id, role string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	RecordLoginSuccess(ctx context.Context, id string) error
	RecordLoginFailure(ctx context.Context, id string) error
	SetResetCode(
		ctx context.Context,
		email, code string,
		expiresAt time.Time,
	) error
	ConsumeResetCode(
		ctx context.Context,
		email, code, passwordHash string,
	) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE id = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE email = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET full_name = $2, phone = $3, institution = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FullName,
		user.Phone,
		user.Institution,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "update role", query, id, role)
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id, status string,
) error {
	query := `
		UPDATE users
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "update status", query, id, status)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	return r.execExpectingRow(ctx, "delete user", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) RecordLoginSuccess(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET login_count = login_count + 1,
		    failed_login_attempts = 0,
		    last_login = NOW(),
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "record login success", query, id)
}

func (r *repository) RecordLoginFailure(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    last_failed_login = NOW(),
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "record login failure", query, id)
}

func (r *repository) SetResetCode(
	ctx context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_code = $2, reset_code_expires_at = $3, updated_at = NOW()
		WHERE email = $1`

	return r.execExpectingRow(ctx, "set reset code", query, email, code, expiresAt)
}

// ConsumeResetCode replaces the password and clears the reset fields in
// one conditional update, so a matched code can never be replayed.
func (r *repository) ConsumeResetCode(
	ctx context.Context,
	email, code, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $3,
		    reset_code = NULL,
		    reset_code_expires_at = NULL,
		    updated_at = NOW()
		WHERE email = $1
		  AND reset_code = $2
		  AND reset_code_expires_at > NOW()`

	result, err := r.db.ExecContext(ctx, query, email, code, passwordHash)
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("consume reset code: %w", core.ErrCodeExpired)
	}

	return nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
