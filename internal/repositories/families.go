package repositories

import (
	"context"

	"dompet/internal/models"

	"gorm.io/gorm"
)

func NewTopupRepository(db *gorm.DB) TopupRepository {
	return newMutationRepository[models.Topup](db, mutationColumns{
		cards:  []string{"card_number"},
		search: []string{"card_number", "topup_method"},
		amend:  []string{"topup_amount", "topup_method", "topup_time"},
	})
}

func NewWithdrawRepository(db *gorm.DB) WithdrawRepository {
	return newMutationRepository[models.Withdraw](db, mutationColumns{
		cards:  []string{"card_number"},
		search: []string{"card_number"},
		amend:  []string{"withdraw_amount", "withdraw_time"},
	})
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return newMutationRepository[models.Transfer](db, mutationColumns{
		cards:  []string{"transfer_from", "transfer_to"},
		search: []string{"transfer_from", "transfer_to"},
		amend:  []string{"transfer_amount", "transfer_time"},
	})
}

type transactionRepository struct {
	*mutationRepository[models.Transaction, *models.Transaction]
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{
		mutationRepository: newMutationRepository[models.Transaction](db, mutationColumns{
			cards:  []string{"card_number", "merchant_card"},
			search: []string{"card_number", "payment_method"},
			amend:  []string{"amount", "payment_method", "transaction_time"},
		}),
	}
}

func (r *transactionRepository) FindByMerchant(ctx context.Context, merchantID uint, q ListQuery) ([]*models.Transaction, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&models.Transaction{}).Where("merchant_id = ?", merchantID), q)
}
