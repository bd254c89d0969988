// AngelaMos | 2026
// mailer.go

package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/carterperez-dev/academy-backend/internal/config"
)

// Mailer sends transactional mail over SMTP. Callers treat every send
// as best-effort; nothing here retries.
type Mailer struct {
	client        *mail.Client
	from          string
	reviewerEmail string
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	return &Mailer{
		client:        client,
		from:          cfg.From,
		reviewerEmail: cfg.ReviewerEmail,
	}, nil
}

func (m *Mailer) VerificationCode(
	ctx context.Context,
	email, name, code string,
	expiresAt time.Time,
) error {
	body, err := render(verificationTmpl, map[string]any{
		"Name":    name,
		"Code":    code,
		"Minutes": minutesUntil(expiresAt),
	})
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Your verification code", body)
}

func (m *Mailer) PasswordResetCode(
	ctx context.Context,
	email, name, code string,
	expiresAt time.Time,
) error {
	body, err := render(passwordResetTmpl, map[string]any{
		"Name":    name,
		"Code":    code,
		"Minutes": minutesUntil(expiresAt),
	})
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Your password reset code", body)
}

func (m *Mailer) PaymentSubmitted(
	ctx context.Context,
	paymentID, userName, userEmail, itemName string,
	amount float64,
) error {
	body, err := render(paymentSubmittedTmpl, map[string]any{
		"PaymentID": paymentID,
		"UserName":  userName,
		"UserEmail": userEmail,
		"ItemName":  itemName,
		"Amount":    amount,
	})
	if err != nil {
		return err
	}

	return m.send(ctx, m.reviewerEmail, "Payment awaiting review", body)
}

func (m *Mailer) PaymentReviewed(
	ctx context.Context,
	email, name, paymentID, itemName, status, feedback string,
) error {
	body, err := render(paymentReviewedTmpl, map[string]any{
		"Name":      name,
		"PaymentID": paymentID,
		"ItemName":  itemName,
		"Status":    status,
		"Feedback":  feedback,
	})
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Your payment has been reviewed", body)
}

func (m *Mailer) send(
	ctx context.Context,
	to, subject, body string,
) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set mail sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set mail recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

func minutesUntil(t time.Time) int {
	minutes := int(time.Until(t).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

var verificationTmpl = template.Must(template.New("verification").Parse(
	`Hi {{.Name}},

Your verification code is {{.Code}}. It expires in {{.Minutes}} minutes.

If you did not sign up, you can ignore this message.
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(
	`Hi {{.Name}},

Your password reset code is {{.Code}}. It expires in {{.Minutes}} minutes.

If you did not request a reset, you can ignore this message.
`))

var paymentSubmittedTmpl = template.Must(template.New("payment_submitted").Parse(
	`A new payment is awaiting review.

Payment: {{.PaymentID}}
Submitted by: {{.UserName}} ({{.UserEmail}})
Item: {{.ItemName}}
Amount: {{printf "%.2f" .Amount}}
`))

var paymentReviewedTmpl = template.Must(template.New("payment_reviewed").Parse(
	`Hi {{.Name}},

Your payment {{.PaymentID}} for {{.ItemName}} has been {{.Status}}.
{{if .Feedback}}
Reviewer feedback: {{.Feedback}}
{{end}}`))
