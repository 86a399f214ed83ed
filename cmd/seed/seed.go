package main

import (
	"context"
	"fmt"
	"time"

	"dompet/internal/models"
	"dompet/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	customerUserID = 1
	merchantUserID = 2
)

type Plan struct {
	CustomerCard    string
	CustomerBalance int64
	MerchantCard    string
	MerchantName    string
	// MerchantAPIKey is generated when empty.
	MerchantAPIKey string
}

type Result struct {
	Merchant models.Merchant
	Created  bool
}

// Seed writes the plan in one transaction. Existing rows are left as they
// are, so a second run never resets a balance.
func Seed(ctx context.Context, db *gorm.DB, plan Plan) (Result, error) {
	for _, card := range []string{plan.CustomerCard, plan.MerchantCard} {
		if !validation.IsCardNumber(card) {
			return Result{}, fmt.Errorf("invalid card number %q", card)
		}
	}
	if plan.CustomerCard == plan.MerchantCard {
		return Result{}, fmt.Errorf("customer and merchant cards must differ")
	}
	if plan.CustomerBalance < 0 {
		return Result{}, fmt.Errorf("customer balance must not be negative")
	}
	if plan.MerchantAPIKey == "" {
		plan.MerchantAPIKey = uuid.NewString()
	}

	var result Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Merchant
		if err := tx.Where("user_id = ?", merchantUserID).First(&existing).Error; err == nil {
			result.Merchant = existing
			return nil
		}

		if err := ensureCard(tx, customerUserID, plan.CustomerCard, plan.CustomerBalance); err != nil {
			return err
		}
		if err := ensureCard(tx, merchantUserID, plan.MerchantCard, 0); err != nil {
			return err
		}

		merchant := models.Merchant{
			UserID: merchantUserID,
			Name:   plan.MerchantName,
			APIKey: plan.MerchantAPIKey,
			Status: models.MerchantStatusActive,
		}
		if err := tx.Create(&merchant).Error; err != nil {
			return fmt.Errorf("create merchant: %w", err)
		}
		result = Result{Merchant: merchant, Created: true}
		return nil
	})
	return result, err
}

func ensureCard(tx *gorm.DB, userID uint, number string, balance int64) error {
	card := models.Card{
		UserID:       userID,
		CardNumber:   number,
		CardType:     "debit",
		CardProvider: "dompet",
		ExpireDate:   time.Now().AddDate(5, 0, 0),
	}
	if err := tx.Where(models.Card{CardNumber: number}).FirstOrCreate(&card).Error; err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	saldo := models.Saldo{CardNumber: number, TotalBalance: balance}
	if err := tx.Where(models.Saldo{CardNumber: number}).FirstOrCreate(&saldo).Error; err != nil {
		return fmt.Errorf("create saldo: %w", err)
	}
	return nil
}
