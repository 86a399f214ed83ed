package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Topup struct {
	ID          uint      `gorm:"primarykey"`
	TopupNo     uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	CardNumber  string    `gorm:"index;size:19;not null"`
	TopupAmount int64     `gorm:"not null"`
	TopupMethod string    `gorm:"not null"`
	TopupTime   time.Time `gorm:"not null"`
	Status      Status    `gorm:"index;not null;default:'pending'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (t *Topup) RecordID() uint         { return t.ID }
func (t *Topup) RecordStatus() Status   { return t.Status }
func (t *Topup) SetStatus(s Status)     { t.Status = s }
func (t *Topup) CardNumbers() []string  { return []string{t.CardNumber} }
func (t *Topup) CreatedTime() time.Time { return t.CreatedAt }
