package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Withdraw struct {
	ID             uint      `gorm:"primarykey"`
	WithdrawNo     uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	CardNumber     string    `gorm:"index;size:19;not null"`
	WithdrawAmount int64     `gorm:"not null"`
	WithdrawTime   time.Time `gorm:"not null"`
	Status         Status    `gorm:"index;not null;default:'pending'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (w *Withdraw) RecordID() uint         { return w.ID }
func (w *Withdraw) RecordStatus() Status   { return w.Status }
func (w *Withdraw) SetStatus(s Status)     { w.Status = s }
func (w *Withdraw) CardNumbers() []string  { return []string{w.CardNumber} }
func (w *Withdraw) CreatedTime() time.Time { return w.CreatedAt }
