package transfer

import (
	"time"

	"dompet/internal/models"
)

const component = "transfer"

type Config struct {
	MinAmount int64
	RecordTTL time.Duration
	ListTTL   time.Duration
}

type CreateTransferRequest struct {
	TransferFrom   string `json:"transfer_from" validate:"required,card_number"`
	TransferTo     string `json:"transfer_to" validate:"required,card_number,nefield=TransferFrom"`
	TransferAmount int64  `json:"transfer_amount" validate:"required,gt=0"`
}

type UpdateTransferRequest struct {
	TransferID     uint   `json:"transfer_id" validate:"required"`
	TransferFrom   string `json:"transfer_from" validate:"required,card_number"`
	TransferTo     string `json:"transfer_to" validate:"required,card_number,nefield=TransferFrom"`
	TransferAmount int64  `json:"transfer_amount" validate:"required,gt=0"`
}

type TransferResponse struct {
	ID             uint          `json:"id"`
	TransferNo     string        `json:"transfer_no"`
	TransferFrom   string        `json:"transfer_from"`
	TransferTo     string        `json:"transfer_to"`
	TransferAmount int64         `json:"transfer_amount"`
	TransferTime   time.Time     `json:"transfer_time"`
	Status         models.Status `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type transferPage struct {
	Items []TransferResponse `json:"items"`
	Total int64              `json:"total"`
}

func toResponse(t *models.Transfer) TransferResponse {
	return TransferResponse{
		ID:             t.ID,
		TransferNo:     t.TransferNo.String(),
		TransferFrom:   t.TransferFrom,
		TransferTo:     t.TransferTo,
		TransferAmount: t.TransferAmount,
		TransferTime:   t.TransferTime,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toResponses(records []*models.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResponse(r))
	}
	return out
}
