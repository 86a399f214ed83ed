package repositories

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/models"

	"gorm.io/gorm"
)

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) FindByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to find merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) FindByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to find merchant: %w", err)
	}
	return &merchant, nil
}
