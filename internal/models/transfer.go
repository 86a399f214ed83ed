package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Transfer struct {
	ID             uint      `gorm:"primarykey"`
	TransferNo     uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	TransferFrom   string    `gorm:"index;size:19;not null"`
	TransferTo     string    `gorm:"index;size:19;not null"`
	TransferAmount int64     `gorm:"not null"`
	TransferTime   time.Time `gorm:"not null"`
	Status         Status    `gorm:"index;not null;default:'pending'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (t *Transfer) RecordID() uint         { return t.ID }
func (t *Transfer) RecordStatus() Status   { return t.Status }
func (t *Transfer) SetStatus(s Status)     { t.Status = s }
func (t *Transfer) CardNumbers() []string  { return []string{t.TransferFrom, t.TransferTo} }
func (t *Transfer) CreatedTime() time.Time { return t.CreatedAt }
