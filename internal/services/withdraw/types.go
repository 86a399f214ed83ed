package withdraw

import (
	"time"

	"dompet/internal/models"
)

const component = "withdraw"

type Config struct {
	MinAmount int64
	RecordTTL time.Duration
	ListTTL   time.Duration
}

// CreateWithdrawRequest takes the withdrawal time from the caller when
// given, otherwise the time the record is created.
type CreateWithdrawRequest struct {
	CardNumber     string     `json:"card_number" validate:"required,card_number"`
	WithdrawAmount int64      `json:"withdraw_amount" validate:"required,gt=0"`
	WithdrawTime   *time.Time `json:"withdraw_time,omitempty"`
}

type UpdateWithdrawRequest struct {
	WithdrawID     uint       `json:"withdraw_id" validate:"required"`
	CardNumber     string     `json:"card_number" validate:"required,card_number"`
	WithdrawAmount int64      `json:"withdraw_amount" validate:"required,gt=0"`
	WithdrawTime   *time.Time `json:"withdraw_time,omitempty"`
}

type WithdrawResponse struct {
	ID             uint          `json:"id"`
	WithdrawNo     string        `json:"withdraw_no"`
	CardNumber     string        `json:"card_number"`
	WithdrawAmount int64         `json:"withdraw_amount"`
	WithdrawTime   time.Time     `json:"withdraw_time"`
	Status         models.Status `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type withdrawPage struct {
	Items []WithdrawResponse `json:"items"`
	Total int64              `json:"total"`
}

func toResponse(w *models.Withdraw) WithdrawResponse {
	return WithdrawResponse{
		ID:             w.ID,
		WithdrawNo:     w.WithdrawNo.String(),
		CardNumber:     w.CardNumber,
		WithdrawAmount: w.WithdrawAmount,
		WithdrawTime:   w.WithdrawTime,
		Status:         w.Status,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func toResponses(records []*models.Withdraw) []WithdrawResponse {
	out := make([]WithdrawResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResponse(r))
	}
	return out
}

func withdrawTime(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.UTC()
}
