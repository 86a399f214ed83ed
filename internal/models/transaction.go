package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction is a card payment made to a merchant. The merchant is paid
// into the card owned by the merchant's user.
type Transaction struct {
	ID              uint      `gorm:"primarykey"`
	TransactionNo   uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	CardNumber      string    `gorm:"index;size:19;not null"`
	MerchantID      uint      `gorm:"index;not null"`
	MerchantCard    string    `gorm:"size:19;not null"`
	Amount          int64     `gorm:"not null"`
	PaymentMethod   string    `gorm:"not null"`
	TransactionTime time.Time `gorm:"not null"`
	Status          Status    `gorm:"index;not null;default:'pending'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (t *Transaction) RecordID() uint         { return t.ID }
func (t *Transaction) RecordStatus() Status   { return t.Status }
func (t *Transaction) SetStatus(s Status)     { t.Status = s }
func (t *Transaction) CardNumbers() []string  { return []string{t.CardNumber, t.MerchantCard} }
func (t *Transaction) CreatedTime() time.Time { return t.CreatedAt }
