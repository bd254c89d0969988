// AngelaMos | 2026
// nop.go

package notify

import (
	"context"
	"log/slog"
	"time"
)

// NopMailer stands in when mail is disabled. Codes still land in the
// debug log so local development works without an SMTP relay.
type NopMailer struct {
	logger *slog.Logger
}

func NewNopMailer(logger *slog.Logger) *NopMailer {
	return &NopMailer{logger: logger}
}

func (m *NopMailer) VerificationCode(
	ctx context.Context,
	email, _, code string,
	_ time.Time,
) error {
	m.logger.DebugContext(ctx, "mail disabled: verification code",
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}

func (m *NopMailer) PasswordResetCode(
	ctx context.Context,
	email, _, code string,
	_ time.Time,
) error {
	m.logger.DebugContext(ctx, "mail disabled: password reset code",
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}

func (m *NopMailer) PaymentSubmitted(
	ctx context.Context,
	paymentID, _, _, _ string,
	_ float64,
) error {
	m.logger.DebugContext(ctx, "mail disabled: payment submitted",
		slog.String("payment_id", paymentID),
	)
	return nil
}

func (m *NopMailer) PaymentReviewed(
	ctx context.Context,
	_, _, paymentID, _, status, _ string,
) error {
	m.logger.DebugContext(ctx, "mail disabled: payment reviewed",
		slog.String("payment_id", paymentID),
		slog.String("status", status),
	)
	return nil
}
