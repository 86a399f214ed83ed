package models

import (
	"time"

	"gorm.io/gorm"
)

type Card struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"index;not null"`
	CardNumber   string `gorm:"uniqueIndex;size:19;not null"`
	CardType     string `gorm:"not null"`
	CardProvider string
	ExpireDate   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}
