// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/user"
)

const paymentColumns = `
	id, user_id, user_name, user_email, amount, item_id, item_name,
	item_type, proof_key, status, reviewed_by, feedback, history,
	created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context, params ListPaymentsParams) ([]Payment, int, error)
	Review(
		ctx context.Context,
		id, status, reviewerID, feedback string,
	) (*Payment, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, user_name, user_email, amount, item_id,
			item_name, item_type, proof_key, status, history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.UserName,
		payment.UserEmail,
		payment.Amount,
		payment.ItemID,
		payment.ItemName,
		payment.ItemType,
		payment.ProofKey,
		payment.Status,
		payment.History,
	)
	if err := row.Scan(&payment.CreatedAt, &payment.UpdatedAt); err != nil {
		if user.IsDuplicateKeyError(err) {
			return fmt.Errorf("create payment: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM payments WHERE id = $1`,
		paymentColumns,
	)

	var payment Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &payment, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListPaymentsParams,
) ([]Payment, int, error) {
	conditions := []string{}
	args := []any{}
	argPos := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}

	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, params.UserID)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM payments" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM payments%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, argPos, argPos+1,
	)
	args = append(args, params.PageSize, params.Offset())

	payments := []Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return payments, total, nil
}

// Review flips a pending payment into its terminal state and appends
// the history entry in the same UPDATE, so status and trail are never
// observable out of step. Zero rows matched means the id is missing or
// the payment was already reviewed; a follow-up read tells the two
// apart.
func (r *repository) Review(
	ctx context.Context,
	id, status, reviewerID, feedback string,
) (*Payment, error) {
	entry, err := json.Marshal(HistoryEntry{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		ReviewedBy: reviewerID,
		Feedback:   feedback,
	})
	if err != nil {
		return nil, fmt.Errorf("review payment: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE payments
		SET status = $2,
		    reviewed_by = $3,
		    feedback = $4,
		    history = history || $5::jsonb,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s`, paymentColumns)

	var payment Payment
	err = r.db.GetContext(ctx, &payment, query,
		id, status, reviewerID, feedback, entry,
	)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return existing, fmt.Errorf("review payment: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("review payment: %w", err)
	}

	return &payment, nil
}
