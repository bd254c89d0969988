// AngelaMos | 2026
// entity.go

package verification

import (
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/academy-backend/internal/user"
)

// PendingVerification is a staged signup awaiting code redemption.
// At most one unexpired row exists per email; expired rows are inert
// and purged before a new signup for the same email can succeed.
type PendingVerification struct {
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	Phone        string    `db:"phone"`
	Institution  string    `db:"institution"`
	Code         string    `db:"code"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

func (p *PendingVerification) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// newConfirmedUser builds the account a pending record promotes into.
// Login metadata starts zeroed; the email is verified by construction.
func newConfirmedUser(p *PendingVerification) *user.User {
	return &user.User{
		ID:              uuid.New().String(),
		Email:           p.Email,
		PasswordHash:    p.PasswordHash,
		FullName:        p.FullName,
		Phone:           p.Phone,
		Institution:     p.Institution,
		Role:            user.RoleUser,
		Status:          user.StatusActive,
		EmailVerified:   true,
		ProfileComplete: true,
	}
}
