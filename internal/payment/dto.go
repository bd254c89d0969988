// AngelaMos | 2026
// dto.go

package payment

import "time"

type SubmitPaymentRequest struct {
	ID       string  `json:"id"        validate:"required,min=1,max=64"`
	Amount   float64 `json:"amount"    validate:"required,gt=0"`
	ItemID   string  `json:"item_id"   validate:"required,max=64"`
	ItemName string  `json:"item_name" validate:"required,max=255"`
	ItemType string  `json:"item_type" validate:"required,oneof=certification course"`
	Proof    string  `json:"proof"     validate:"required"`
}

type ReviewPaymentRequest struct {
	Action   string `json:"action"   validate:"required,oneof=approve reject"`
	Feedback string `json:"feedback" validate:"omitempty,max=1000"`
}

type PaymentResponse struct {
	ID         string         `json:"id"`
	UserID     *string        `json:"user_id,omitempty"`
	UserName   string         `json:"user_name"`
	UserEmail  string         `json:"user_email"`
	Amount     float64        `json:"amount"`
	ItemID     string         `json:"item_id"`
	ItemName   string         `json:"item_name"`
	ItemType   string         `json:"item_type"`
	Status     string         `json:"status"`
	ReviewedBy *string        `json:"reviewed_by,omitempty"`
	Feedback   *string        `json:"feedback,omitempty"`
	History    []HistoryEntry `json:"history"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    int               `json:"total"`
}

type ListPaymentsParams struct {
	Page     int
	PageSize int
	Status   string
	UserID   string
}

func (p *ListPaymentsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

func (p *ListPaymentsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		UserName:   p.UserName,
		UserEmail:  p.UserEmail,
		Amount:     p.Amount,
		ItemID:     p.ItemID,
		ItemName:   p.ItemName,
		ItemType:   p.ItemType,
		Status:     p.Status,
		ReviewedBy: p.ReviewedBy,
		Feedback:   p.Feedback,
		History:    p.History,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToPaymentResponseList(payments []Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
