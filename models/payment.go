package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID `gorm:"type:uuid;index;not null"`
	DocumentID uuid.UUID `gorm:"type:uuid;index;not null"` // always an invoice

	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    string          `gorm:"type:varchar(20);not null"` // cash, card, check, bank_transfer, other
	Reference string
	Notes     string    `gorm:"type:text"`
	PaidAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	gorm.Model
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
