// AngelaMos | 2026
// service.go

package payment

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
	ErrDuplicatePayment = errors.New("payment already exists")
	ErrAlreadyReviewed  = errors.New("payment already reviewed")
)

// ProofStore persists the proof-of-payment image and returns the
// object key. The upload happens before the payment row exists, so a
// storage failure aborts the submission and leaves no orphan record.
type ProofStore interface {
	Store(ctx context.Context, paymentID, encoded string) (string, error)
}

// Mailer delivers review-workflow notifications. Sends are best-effort
// and never fail the carrying operation.
type Mailer interface {
	PaymentSubmitted(
		ctx context.Context,
		paymentID, userName, userEmail, itemName string,
		amount float64,
	) error
	PaymentReviewed(
		ctx context.Context,
		email, name, paymentID, itemName, status, feedback string,
	) error
}

type Service struct {
	repo   Repository
	proofs ProofStore
	mailer Mailer
	logger *slog.Logger
}

func NewService(
	repo Repository,
	proofs ProofStore,
	mailer Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		proofs: proofs,
		mailer: mailer,
		logger: logger,
	}
}

// Submit stores the proof image, then inserts the pending payment with
// its opening history entry.
func (s *Service) Submit(
	ctx context.Context,
	claims *middleware.SessionClaims,
	req *SubmitPaymentRequest,
) (*Payment, error) {
	proofKey, err := s.proofs.Store(ctx, req.ID, req.Proof)
	if err != nil {
		// A malformed proof is the caller's fault, not a storage outage.
		if errors.Is(err, core.ErrInvalidInput) {
			return nil, fmt.Errorf("store payment proof: %w", err)
		}
		return nil, fmt.Errorf("store payment proof: %w: %w", core.ErrDependency, err)
	}

	payment := &Payment{
		ID:        req.ID,
		UserID:    &claims.UserID,
		UserName:  claims.Name,
		UserEmail: claims.Email,
		Amount:    req.Amount,
		ItemID:    req.ItemID,
		ItemName:  req.ItemName,
		ItemType:  req.ItemType,
		ProofKey:  proofKey,
		Status:    StatusPending,
		History: HistoryLog{{
			Status:    StatusPending,
			Timestamp: time.Now().UTC(),
		}},
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrDuplicatePayment
		}
		return nil, err
	}

	if err := s.mailer.PaymentSubmitted(
		ctx,
		payment.ID,
		payment.UserName,
		payment.UserEmail,
		payment.ItemName,
		payment.Amount,
	); err != nil {
		s.logger.WarnContext(ctx, "payment submitted email failed",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}

	return payment, nil
}

// Get returns a payment to its submitter or to an admin.
func (s *Service) Get(
	ctx context.Context,
	claims *middleware.SessionClaims,
	id string,
) (*Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !payment.OwnedBy(claims.UserID) && !claims.IsAdmin() {
		return nil, fmt.Errorf("get payment: %w", core.ErrForbidden)
	}

	return payment, nil
}

// List scopes non-admin callers to their own payments; admins see all
// and may filter by status or user.
func (s *Service) List(
	ctx context.Context,
	claims *middleware.SessionClaims,
	params ListPaymentsParams,
) ([]Payment, int, error) {
	if !claims.IsAdmin() {
		params.UserID = claims.UserID
	}
	params.Normalize()

	return s.repo.List(ctx, params)
}

// Review moves a pending payment to approved or rejected. The
// transition happens in one conditional UPDATE, so a second reviewer
// racing on the same payment loses cleanly instead of double-writing
// history.
func (s *Service) Review(
	ctx context.Context,
	reviewerID, id string,
	req *ReviewPaymentRequest,
) (*Payment, error) {
	status, ok := statusForAction(req.Action)
	if !ok {
		return nil, fmt.Errorf("review payment: %w", core.ErrInvalidInput)
	}

	payment, err := s.repo.Review(ctx, id, status, reviewerID, req.Feedback)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment reviewed",
		slog.String("payment_id", payment.ID),
		slog.String("status", status),
		slog.String("reviewed_by", reviewerID),
	)

	if err := s.mailer.PaymentReviewed(
		ctx,
		payment.UserEmail,
		payment.UserName,
		payment.ID,
		payment.ItemName,
		status,
		req.Feedback,
	); err != nil {
		s.logger.WarnContext(ctx, "payment reviewed email failed",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}

	return payment, nil
}
