package repositories

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/models"

	"gorm.io/gorm"
)

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) FindByCardNumber(ctx context.Context, cardNumber string) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).Where("card_number = ?", cardNumber).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return &card, nil
}

func (r *cardRepository) FindByUserID(ctx context.Context, userID uint) (*models.Card, error) {
	var card models.Card
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find card by user: %w", err)
	}
	return &card, nil
}
