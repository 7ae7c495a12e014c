package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Job struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null"`

	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"type:varchar(20);default:'scheduled'"` // scheduled, in_progress, completed, cancelled
	ScheduledAt *time.Time
	CompletedAt *time.Time

	Client    Client     `gorm:"foreignKey:ClientID"`
	Documents []Document `gorm:"foreignKey:JobID"`

	gorm.Model
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	j.ID = uuid.New()
	return
}
