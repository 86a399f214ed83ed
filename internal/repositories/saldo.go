package repositories

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/models"

	"gorm.io/gorm"
)

type saldoRepository struct {
	db *gorm.DB
}

func NewSaldoRepository(db *gorm.DB) SaldoRepository {
	return &saldoRepository{db: db}
}

func (r *saldoRepository) FindByCardNumber(ctx context.Context, cardNumber string) (*models.Saldo, error) {
	var saldo models.Saldo
	if err := r.db.WithContext(ctx).Where("card_number = ?", cardNumber).First(&saldo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaldoNotFound
		}
		return nil, fmt.Errorf("failed to find saldo: %w", err)
	}
	return &saldo, nil
}

func (r *saldoRepository) FindAll(ctx context.Context, q ListQuery) ([]*models.Saldo, int64, error) {
	q = q.Normalize()
	tx := r.db.WithContext(ctx).Model(&models.Saldo{})
	if q.Search != "" {
		tx = tx.Where("card_number LIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count saldos: %w", err)
	}

	var saldos []*models.Saldo
	if err := tx.Order("id").Limit(q.PageSize).Offset(q.Offset()).Find(&saldos).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list saldos: %w", err)
	}
	return saldos, total, nil
}

// UpdateBalance is a compare-and-swap on total_balance.
func (r *saldoRepository) UpdateBalance(ctx context.Context, cardNumber string, expected, newBalance int64) error {
	if newBalance < 0 {
		return ErrNegativeBalance
	}

	res := r.db.WithContext(ctx).
		Model(&models.Saldo{}).
		Where("card_number = ? AND total_balance = ?", cardNumber, expected).
		Update("total_balance", newBalance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Saldo{}).Where("card_number = ?", cardNumber).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check saldo: %w", err)
	}
	if count == 0 {
		return ErrSaldoNotFound
	}
	return ErrBalanceConflict
}
