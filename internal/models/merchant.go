package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MerchantStatusActive   = "active"
	MerchantStatusInactive = "inactive"
)

type Merchant struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	APIKey    string `gorm:"column:api_key;uniqueIndex;not null"`
	Status    string `gorm:"default:'active'"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (m *Merchant) IsActive() bool {
	return m.Status == "" || m.Status == MerchantStatusActive
}
