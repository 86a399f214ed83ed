package repositories

import (
	"context"
	"time"

	"dompet/internal/models"
)

// ListQuery describes one page of a list view.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps the page to sane bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// CardRepository is the account directory.
type CardRepository interface {
	FindByCardNumber(ctx context.Context, cardNumber string) (*models.Card, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Card, error)
}

type MerchantRepository interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error)
	FindByID(ctx context.Context, id uint) (*models.Merchant, error)
}

// SaldoRepository is the ledger store. UpdateBalance only applies when the
// stored balance still equals expected.
type SaldoRepository interface {
	FindByCardNumber(ctx context.Context, cardNumber string) (*models.Saldo, error)
	FindAll(ctx context.Context, q ListQuery) ([]*models.Saldo, int64, error)
	UpdateBalance(ctx context.Context, cardNumber string, expected, newBalance int64) error
}

// MutationRepository stores the operation records of one family.
type MutationRepository[T any] interface {
	Create(ctx context.Context, record *T) error
	FindByID(ctx context.Context, id uint) (*T, error)
	FindAll(ctx context.Context, q ListQuery) ([]*T, int64, error)
	FindByCardNumber(ctx context.Context, cardNumber string) ([]*T, error)
	FindStuck(ctx context.Context, olderThan time.Time) ([]*T, error)
	UpdateFields(ctx context.Context, record *T) error
	UpdateStatus(ctx context.Context, id uint, status models.Status) error

	// Trashed records are hidden from every lookup above.
	FindTrashed(ctx context.Context, q ListQuery) ([]*T, int64, error)
	Trash(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	DeletePermanent(ctx context.Context, id uint) error
	RestoreAll(ctx context.Context) (int64, error)
	DeleteAllPermanent(ctx context.Context) (int64, error)
}

type (
	TopupRepository    = MutationRepository[models.Topup]
	WithdrawRepository = MutationRepository[models.Withdraw]
	TransferRepository = MutationRepository[models.Transfer]
)

type TransactionRepository interface {
	MutationRepository[models.Transaction]
	FindByMerchant(ctx context.Context, merchantID uint, q ListQuery) ([]*models.Transaction, int64, error)
}
