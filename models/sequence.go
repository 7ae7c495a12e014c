package models

import (
	"github.com/google/uuid"
)

// NumberSequence is the per-company monotonic counter behind document
// numbering. One row per (company, kind), bumped under a row lock.
type NumberSequence struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind      string    `gorm:"type:varchar(10);primaryKey"` // estimate, invoice
	Value     int64     `gorm:"not null;default:0"`
}
