package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Company struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name    string    `gorm:"not null"`
	Address string
	Phone   string

	// Billing defaults. DefaultTaxRate overrides the house default from the
	// environment; WarrantyKeywords is a comma-separated heuristic list.
	DefaultTaxRate   decimal.Decimal `gorm:"type:decimal(6,4);default:0.10"`
	WarrantyKeywords string          `gorm:"default:'warranty,protection'"`

	SMSNotifications bool   `gorm:"default:false"`
	OverdueReminders bool   `gorm:"default:true"`
	ReminderMessage  string `gorm:"type:text"`

	Users     []User     `gorm:"foreignKey:CompanyID"`
	Clients   []Client   `gorm:"foreignKey:CompanyID"`
	Jobs      []Job      `gorm:"foreignKey:CompanyID"`
	Products  []Product  `gorm:"foreignKey:CompanyID"`
	Documents []Document `gorm:"foreignKey:CompanyID"`
}
