// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is a confirmed account. Rows are created exclusively by the
// verification promotion path, never directly from a signup request.
type User struct {
	ID                  string     `db:"id"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	FullName            string     `db:"full_name"`
	Phone               string     `db:"phone"`
	Institution         string     `db:"institution"`
	Role                string     `db:"role"`
	Status              string     `db:"status"`
	EmailVerified       bool       `db:"email_verified"`
	ProfileComplete     bool       `db:"profile_complete"`
	LoginCount          int        `db:"login_count"`
	FailedLoginAttempts int        `db:"failed_login_attempts"`
	LastFailedLogin     *time.Time `db:"last_failed_login"`
	LastLogin           *time.Time `db:"last_login"`
	ResetCode           *string    `db:"reset_code"`
	ResetCodeExpiresAt  *time.Time `db:"reset_code_expires_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusSuspended
}
