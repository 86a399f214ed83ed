package transaction

import (
	"time"

	"dompet/internal/models"
)

const component = "transaction"

type Config struct {
	MinAmount int64
	RecordTTL time.Duration
	ListTTL   time.Duration
}

// CreateTransactionRequest is a card payment to the merchant owning ApiKey.
// The key travels in the X-Api-Key header, never in the body.
type CreateTransactionRequest struct {
	ApiKey        string `json:"-" validate:"required"`
	CardNumber    string `json:"card_number" validate:"required,card_number"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type UpdateTransactionRequest struct {
	TransactionID uint   `json:"transaction_id" validate:"required"`
	ApiKey        string `json:"-" validate:"required"`
	CardNumber    string `json:"card_number" validate:"required,card_number"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type TransactionResponse struct {
	ID              uint          `json:"id"`
	TransactionNo   string        `json:"transaction_no"`
	CardNumber      string        `json:"card_number"`
	MerchantID      uint          `json:"merchant_id"`
	Amount          int64         `json:"amount"`
	PaymentMethod   string        `json:"payment_method"`
	TransactionTime time.Time     `json:"transaction_time"`
	Status          models.Status `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type transactionPage struct {
	Items []TransactionResponse `json:"items"`
	Total int64                 `json:"total"`
}

func toResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		TransactionNo:   t.TransactionNo.String(),
		CardNumber:      t.CardNumber,
		MerchantID:      t.MerchantID,
		Amount:          t.Amount,
		PaymentMethod:   t.PaymentMethod,
		TransactionTime: t.TransactionTime,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toResponses(records []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResponse(r))
	}
	return out
}
