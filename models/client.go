package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name      string `gorm:"not null"`
	Phone     string `gorm:"not null;uniqueIndex:idx_company_phone,priority:2"`
	Email     string
	Address   string
	Notes     string
	LastJobAt *time.Time
	IsActive  bool `gorm:"default:true"`

	Jobs []Job `gorm:"foreignKey:ClientID"`

	gorm.Model
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	c.ID = uuid.New()
	return
}
