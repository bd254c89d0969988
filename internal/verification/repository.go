// AngelaMos | 2026
// repository.go

package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/user"
)

type Repository interface {
	Create(ctx context.Context, pending *PendingVerification) error
	GetByEmail(ctx context.Context, email string) (*PendingVerification, error)
	ReplaceCode(
		ctx context.Context,
		email, code string,
		expiresAt time.Time,
	) error
	DeleteExpiredByEmail(ctx context.Context, email string) error
	PurgeExpired(ctx context.Context) (int64, error)
	Promote(ctx context.Context, email, code string) (*user.User, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(
	ctx context.Context,
	pending *PendingVerification,
) error {
	query := `
		INSERT INTO pending_verifications (
			email, password_hash, full_name, phone, institution,
			code, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &pending.CreatedAt, query,
		pending.Email,
		pending.PasswordHash,
		pending.FullName,
		pending.Phone,
		pending.Institution,
		pending.Code,
		pending.ExpiresAt,
	)
	if err != nil {
		if user.IsDuplicateKeyError(err) {
			return fmt.Errorf("create pending verification: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create pending verification: %w", err)
	}

	return nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*PendingVerification, error) {
	query := `
		SELECT email, password_hash, full_name, phone, institution,
		       code, expires_at, created_at
		FROM pending_verifications
		WHERE email = $1`

	var pending PendingVerification
	err := r.db.GetContext(ctx, &pending, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pending verification: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pending verification: %w", err)
	}

	return &pending, nil
}

func (r *repository) ReplaceCode(
	ctx context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE pending_verifications
		SET code = $2, expires_at = $3
		WHERE email = $1`

	result, err := r.db.ExecContext(ctx, query, email, code, expiresAt)
	if err != nil {
		return fmt.Errorf("replace code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace code: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("replace code: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeleteExpiredByEmail(
	ctx context.Context,
	email string,
) error {
	query := `
		DELETE FROM pending_verifications
		WHERE email = $1 AND expires_at <= NOW()`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("delete expired pending verification: %w", err)
	}

	return nil
}

func (r *repository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM pending_verifications WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("purge expired pending verifications: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired pending verifications: %w", err)
	}

	return rows, nil
}

// Promote consumes a pending record and creates the confirmed account
// in one transaction. The conditional DELETE matches email, code, and
// an unexpired window at the moment of use, so two concurrent
// redemptions race on the same row and exactly one wins. If the user
// insert fails the transaction rolls back and the pending record
// survives for retry.
func (r *repository) Promote(
	ctx context.Context,
	email, code string,
) (*user.User, error) {
	var promoted *user.User

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		deleteQuery := `
			DELETE FROM pending_verifications
			WHERE email = $1 AND code = $2 AND expires_at > NOW()
			RETURNING email, password_hash, full_name, phone, institution,
			          code, expires_at, created_at`

		var pending PendingVerification
		err := tx.GetContext(ctx, &pending, deleteQuery, email, code)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("consume pending verification: %w", core.ErrCodeExpired)
		}
		if err != nil {
			return fmt.Errorf("consume pending verification: %w", err)
		}

		u := newConfirmedUser(&pending)

		insertQuery := `
			INSERT INTO users (
				id, email, password_hash, full_name, phone, institution,
				role, status, email_verified, profile_complete
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at`

		row := tx.QueryRowxContext(ctx, insertQuery,
			u.ID,
			u.Email,
			u.PasswordHash,
			u.FullName,
			u.Phone,
			u.Institution,
			u.Role,
			u.Status,
			u.EmailVerified,
			u.ProfileComplete,
		)
		if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
			if user.IsDuplicateKeyError(err) {
				return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("create account: %w", err)
		}

		promoted = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}
