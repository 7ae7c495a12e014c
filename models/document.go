package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document is an estimate or invoice row. Both kinds share one table; the
// invoice-only columns stay zero on estimates.
type Document struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index"`
	JobID           uuid.UUID `gorm:"type:uuid;index;not null"`

	Kind   string `gorm:"type:varchar(10);index;not null"` // estimate, invoice
	Number string `gorm:"uniqueIndex:idx_company_kind_number,priority:3;not null"`
	Status string `gorm:"type:varchar(20);not null"`

	IssuedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	TaxRate  decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Notes    string          `gorm:"type:text"`

	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0.0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Invoice-only fields.
	AmountPaid decimal.Decimal `gorm:"type:decimal(12,2);default:0.0"`
	Balance    decimal.Decimal `gorm:"type:decimal(12,2);default:0.0"`
	EstimateID *uuid.UUID      `gorm:"type:uuid;index"` // source estimate when converted

	Items    []DocumentItem `gorm:"foreignKey:DocumentID"`
	Payments []Payment      `gorm:"foreignKey:DocumentID"`

	gorm.Model
}

type DocumentItem struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index"`

	Name        string `gorm:"not null"`
	Description string
	Quantity    int             `gorm:"default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);default:0.0"`
	Taxable     bool            `gorm:"default:true"`
	Discount    decimal.Decimal `gorm:"type:decimal(6,2);default:0.0"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Origin      string          `gorm:"type:varchar(10);default:'catalog'"` // catalog, custom, warranty
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

func (i *DocumentItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
