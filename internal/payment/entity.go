// AngelaMos | 2026
// entity.go

package payment

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ItemTypeCertification = "certification"
	ItemTypeCourse        = "course"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Payment struct {
	ID         string     `db:"id"`
	UserID     *string    `db:"user_id"`
	UserName   string     `db:"user_name"`
	UserEmail  string     `db:"user_email"`
	Amount     float64    `db:"amount"`
	ItemID     string     `db:"item_id"`
	ItemName   string     `db:"item_name"`
	ItemType   string     `db:"item_type"`
	ProofKey   string     `db:"proof_key"`
	Status     string     `db:"status"`
	ReviewedBy *string    `db:"reviewed_by"`
	Feedback   *string    `db:"feedback"`
	History    HistoryLog `db:"history"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// IsTerminal reports whether the payment has already been reviewed.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusApproved || p.Status == StatusRejected
}

// OwnedBy reports whether the payment belongs to the given user.
// UserID is nulled when the submitting account is deleted, so an
// orphaned payment belongs to nobody.
func (p *Payment) OwnedBy(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}

type HistoryEntry struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	Feedback   string    `json:"feedback,omitempty"`
}

// HistoryLog maps the payments.history jsonb column. Appends happen in
// SQL (`history || $n::jsonb`) so a transition and its trail land in
// the same statement; Go only ever reads the column back.
type HistoryLog []HistoryEntry

func (h *HistoryLog) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = nil
		return nil
	default:
		return fmt.Errorf("scan history: unsupported type %T", src)
	}
}

func (h HistoryLog) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

func ValidItemType(t string) bool {
	return t == ItemTypeCertification || t == ItemTypeCourse
}

func statusForAction(action string) (string, bool) {
	switch action {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}
