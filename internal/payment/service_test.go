// AngelaMos | 2026
// service_test.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/middleware"
)

type fakeRepo struct {
	payments map[string]*Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{payments: map[string]*Payment{}}
}

func (f *fakeRepo) Create(_ context.Context, p *Payment) error {
	if _, ok := f.payments[p.ID]; ok {
		return core.ErrDuplicateKey
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	f.payments[p.ID] = p
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) List(
	_ context.Context,
	params ListPaymentsParams,
) ([]Payment, int, error) {
	var out []Payment
	for _, p := range f.payments {
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		if params.UserID != "" && !p.OwnedBy(params.UserID) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Review(
	_ context.Context,
	id, status, reviewerID, feedback string,
) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if p.Status != StatusPending {
		return p, core.ErrConflict
	}
	p.Status = status
	p.ReviewedBy = &reviewerID
	p.Feedback = &feedback
	p.History = append(p.History, HistoryEntry{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		ReviewedBy: reviewerID,
		Feedback:   feedback,
	})
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

type fakeProofStore struct {
	stored   map[string]string
	storeErr error
}

func newFakeProofStore() *fakeProofStore {
	return &fakeProofStore{stored: map[string]string{}}
}

func (f *fakeProofStore) Store(
	_ context.Context,
	paymentID, encoded string,
) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	key := "payment-proofs/" + paymentID + "/proof.png"
	f.stored[paymentID] = encoded
	return key, nil
}

type notice struct {
	kind      string
	paymentID string
	status    string
}

type fakeMailer struct {
	sent    []notice
	sendErr error
}

func (f *fakeMailer) PaymentSubmitted(
	_ context.Context,
	paymentID, _, _, _ string,
	_ float64,
) error {
	f.sent = append(f.sent, notice{kind: "submitted", paymentID: paymentID})
	return f.sendErr
}

func (f *fakeMailer) PaymentReviewed(
	_ context.Context,
	_, _, paymentID, _, status, _ string,
) error {
	f.sent = append(f.sent, notice{
		kind:      "reviewed",
		paymentID: paymentID,
		status:    status,
	})
	return f.sendErr
}

func newTestService(
	repo Repository,
	proofs ProofStore,
	mailer Mailer,
) *Service {
	return NewService(repo, proofs, mailer, slog.Default())
}

func studentClaims() *middleware.SessionClaims {
	return &middleware.SessionClaims{
		UserID: "user-1",
		Email:  "student@example.com",
		Name:   "Test Student",
		Role:   "user",
	}
}

func adminClaims() *middleware.SessionClaims {
	return &middleware.SessionClaims{
		UserID: "admin-1",
		Email:  "admin@example.com",
		Name:   "Test Admin",
		Role:   "admin",
	}
}

func submitRequest(id string) *SubmitPaymentRequest {
	return &SubmitPaymentRequest{
		ID:       id,
		Amount:   149.99,
		ItemID:   "cert-101",
		ItemName: "Cloud Certification",
		ItemType: ItemTypeCertification,
		Proof:    "aGVsbG8=",
	}
}

func TestSubmitCreatesPendingPayment(t *testing.T) {
	repo := newFakeRepo()
	proofs := newFakeProofStore()
	mailer := &fakeMailer{}
	svc := newTestService(repo, proofs, mailer)

	payment, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, payment.Status)
	require.NotNil(t, payment.UserID)
	assert.Equal(t, "user-1", *payment.UserID)
	assert.Equal(t, "Test Student", payment.UserName)
	assert.NotEmpty(t, payment.ProofKey)

	require.Len(t, payment.History, 1)
	assert.Equal(t, StatusPending, payment.History[0].Status)
	assert.Empty(t, payment.History[0].ReviewedBy)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "submitted", mailer.sent[0].kind)
}

func TestSubmitProofFailureLeavesNoPayment(t *testing.T) {
	repo := newFakeRepo()
	proofs := newFakeProofStore()
	proofs.storeErr = errors.New("bucket unavailable")
	svc := newTestService(repo, proofs, &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	assert.ErrorIs(t, err, core.ErrDependency)

	assert.Empty(t, repo.payments)
}

func TestSubmitMalformedProofIsNotADependencyFailure(t *testing.T) {
	repo := newFakeRepo()
	proofs := newFakeProofStore()
	proofs.storeErr = fmt.Errorf("decode proof image: %w", core.ErrInvalidInput)
	svc := newTestService(repo, proofs, &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.NotErrorIs(t, err, core.ErrDependency)

	assert.Empty(t, repo.payments)
}

func TestSubmitDuplicateID(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	_, err = svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestSubmitMailFailureSwallowed(t *testing.T) {
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	svc := newTestService(newFakeRepo(), newFakeProofStore(), mailer)

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	assert.NoError(t, err)
}

func TestReviewApprove(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := newTestService(repo, newFakeProofStore(), mailer)

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	reviewed, err := svc.Review(
		context.Background(), "admin-1", "pay-1",
		&ReviewPaymentRequest{Action: ActionApprove, Feedback: "looks good"})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)

	// Submission entry plus exactly one review entry.
	require.Len(t, reviewed.History, 2)
	assert.Equal(t, StatusApproved, reviewed.History[1].Status)
	assert.Equal(t, "admin-1", reviewed.History[1].ReviewedBy)
	assert.Equal(t, "looks good", reviewed.History[1].Feedback)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "reviewed", mailer.sent[1].kind)
	assert.Equal(t, StatusApproved, mailer.sent[1].status)
}

func TestReviewReject(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	reviewed, err := svc.Review(
		context.Background(), "admin-1", "pay-1",
		&ReviewPaymentRequest{Action: ActionReject, Feedback: "proof unreadable"})
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, reviewed.Status)
	assert.True(t, reviewed.IsTerminal())
}

func TestReviewTerminalPaymentRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	_, err = svc.Review(
		context.Background(), "admin-1", "pay-1",
		&ReviewPaymentRequest{Action: ActionApprove})
	require.NoError(t, err)

	_, err = svc.Review(
		context.Background(), "admin-2", "pay-1",
		&ReviewPaymentRequest{Action: ActionReject})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// The losing review left no trace.
	p := repo.payments["pay-1"]
	assert.Equal(t, StatusApproved, p.Status)
	assert.Len(t, p.History, 2)
	assert.Equal(t, "admin-1", *p.ReviewedBy)
}

func TestReviewMissingPayment(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeProofStore(), &fakeMailer{})

	_, err := svc.Review(
		context.Background(), "admin-1", "missing",
		&ReviewPaymentRequest{Action: ActionApprove})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReviewInvalidAction(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeProofStore(), &fakeMailer{})

	_, err := svc.Review(
		context.Background(), "admin-1", "pay-1",
		&ReviewPaymentRequest{Action: "escalate"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestReviewMailFailureSwallowed(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := newTestService(repo, newFakeProofStore(), mailer)

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	mailer.sendErr = errors.New("smtp down")

	_, err = svc.Review(
		context.Background(), "admin-1", "pay-1",
		&ReviewPaymentRequest{Action: ActionApprove})
	assert.NoError(t, err)
}

func TestGetOwnerAndAdminAccess(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), studentClaims(), "pay-1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), adminClaims(), "pay-1")
	assert.NoError(t, err)

	stranger := &middleware.SessionClaims{UserID: "user-2", Role: "user"}
	_, err = svc.Get(context.Background(), stranger, "pay-1")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestGetOrphanedPaymentAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	// Deleting the submitting account nulls user_id on its payments;
	// the audit record stays behind for reviewers.
	repo.payments["pay-1"].UserID = nil

	_, err = svc.Get(context.Background(), studentClaims(), "pay-1")
	assert.ErrorIs(t, err, core.ErrForbidden)

	orphan, err := svc.Get(context.Background(), adminClaims(), "pay-1")
	require.NoError(t, err)
	assert.Nil(t, orphan.UserID)
	assert.Equal(t, "student@example.com", orphan.UserEmail)
}

func TestListScopesNonAdminToOwnPayments(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeProofStore(), &fakeMailer{})

	_, err := svc.Submit(
		context.Background(), studentClaims(), submitRequest("pay-1"))
	require.NoError(t, err)

	other := &middleware.SessionClaims{
		UserID: "user-2",
		Email:  "other@example.com",
		Name:   "Other Student",
		Role:   "user",
	}
	_, err = svc.Submit(context.Background(), other, submitRequest("pay-2"))
	require.NoError(t, err)

	mine, total, err := svc.List(
		context.Background(), studentClaims(), ListPaymentsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].OwnedBy("user-1"))

	all, total, err := svc.List(
		context.Background(), adminClaims(), ListPaymentsParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}
