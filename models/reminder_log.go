// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderLog records every overdue-invoice notice sent to a client.
type ReminderLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID   uuid.UUID `gorm:"type:uuid;index;not null"`
	DocumentID uuid.UUID `gorm:"type:uuid;index;not null"`

	Message      string `gorm:"type:text"`
	Status       string `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string `gorm:"type:text"`
	Channel      string `gorm:"type:varchar(20)"` // sms
	SentAt       time.Time

	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
