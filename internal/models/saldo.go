package models

import "time"

// Saldo is the ledger entry of a card. Balances are kept in the smallest
// currency unit.
type Saldo struct {
	ID           uint   `gorm:"primarykey"`
	CardNumber   string `gorm:"uniqueIndex;size:19;not null"`
	TotalBalance int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
