package topup

import (
	"time"

	"dompet/internal/models"
)

const component = "topup"

type Config struct {
	MinAmount int64
	RecordTTL time.Duration
	ListTTL   time.Duration
}

type CreateTopupRequest struct {
	CardNumber  string `json:"card_number" validate:"required,card_number"`
	TopupAmount int64  `json:"topup_amount" validate:"required,gt=0"`
	TopupMethod string `json:"topup_method" validate:"required"`
}

type UpdateTopupRequest struct {
	TopupID     uint   `json:"topup_id" validate:"required"`
	CardNumber  string `json:"card_number" validate:"required,card_number"`
	TopupAmount int64  `json:"topup_amount" validate:"required,gt=0"`
	TopupMethod string `json:"topup_method" validate:"required"`
}

type TopupResponse struct {
	ID          uint          `json:"id"`
	CardNumber  string        `json:"card_number"`
	TopupNo     string        `json:"topup_no"`
	TopupAmount int64         `json:"topup_amount"`
	TopupMethod string        `json:"topup_method"`
	TopupTime   time.Time     `json:"topup_time"`
	Status      models.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// topupPage is the cached form of one list page.
type topupPage struct {
	Items []TopupResponse `json:"items"`
	Total int64           `json:"total"`
}

func toResponse(t *models.Topup) TopupResponse {
	return TopupResponse{
		ID:          t.ID,
		CardNumber:  t.CardNumber,
		TopupNo:     t.TopupNo.String(),
		TopupAmount: t.TopupAmount,
		TopupMethod: t.TopupMethod,
		TopupTime:   t.TopupTime,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toResponses(records []*models.Topup) []TopupResponse {
	out := make([]TopupResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResponse(r))
	}
	return out
}
