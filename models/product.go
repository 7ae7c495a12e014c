package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name        string `gorm:"not null"`
	Description string
	// Price is the customer-facing unit price; Cost is the internal cost
	// basis used for margin and never exposed to clients.
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2);default:0.0"`
	Category   string          `gorm:"default:'General'"`
	Tags       StringList      `gorm:"type:jsonb;default:'[]'"`
	IsWarranty bool            `gorm:"default:false"`
	IsActive   bool            `gorm:"default:true"`

	gorm.Model
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	p.ID = uuid.New()
	return
}
