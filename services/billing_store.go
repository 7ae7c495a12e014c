package services

import (
	"context"
	"errors"
	"fmt"

	"fieldservice-backend/billing"
	"fieldservice-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillingStore adapts the GORM schema to the billing engine's boundary
// interfaces (DocumentStore, PaymentStore, Sequencer, Catalog), scoped to
// one company.
type BillingStore struct {
	db        *gorm.DB
	companyID uuid.UUID
	userID    uuid.UUID
}

func NewBillingStore(db *gorm.DB, companyID, userID uuid.UUID) *BillingStore {
	return &BillingStore{db: db, companyID: companyID, userID: userID}
}

var ErrDocumentNotFound = errors.New("services: document not found")

func (s *BillingStore) rowFromRecord(kind billing.Kind, rec billing.DocumentRecord) (models.Document, error) {
	jobID, err := uuid.Parse(rec.JobID)
	if err != nil {
		return models.Document{}, fmt.Errorf("services: invalid job id %q: %w", rec.JobID, err)
	}

	doc := models.Document{
		CompanyID:       s.companyID,
		CreatedByUserID: s.userID,
		JobID:           jobID,
		Kind:            string(kind),
		Number:          rec.Number,
		Status:          rec.Status,
		TaxRate:         rec.TaxRate,
		Notes:           rec.Notes,
		Subtotal:        rec.Subtotal,
		TaxAmount:       rec.TaxAmount,
		Total:           rec.Total,
		AmountPaid:      rec.AmountPaid,
		Balance:         rec.Balance,
	}
	if rec.EstimateID != "" {
		estID, err := uuid.Parse(rec.EstimateID)
		if err != nil {
			return models.Document{}, fmt.Errorf("services: invalid estimate id %q: %w", rec.EstimateID, err)
		}
		doc.EstimateID = &estID
	}
	for _, it := range rec.Items {
		row := models.DocumentItem{
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.OurPrice,
			Taxable:     it.Taxable,
			Discount:    it.Discount,
			TotalPrice:  it.Total,
			Origin:      string(it.Origin.Kind),
		}
		if it.Origin.ProductID != "" {
			if pid, err := uuid.Parse(it.Origin.ProductID); err == nil {
				row.ProductID = &pid
			}
		}
		doc.Items = append(doc.Items, row)
	}
	return doc, nil
}

func recordFromRow(doc models.Document) billing.DocumentRecord {
	rec := billing.DocumentRecord{
		ID:         doc.ID.String(),
		Number:     doc.Number,
		JobID:      doc.JobID.String(),
		Status:     doc.Status,
		TaxRate:    doc.TaxRate,
		Notes:      doc.Notes,
		Subtotal:   doc.Subtotal,
		TaxAmount:  doc.TaxAmount,
		Total:      doc.Total,
		AmountPaid: doc.AmountPaid,
		Balance:    doc.Balance,
	}
	if doc.EstimateID != nil {
		rec.EstimateID = doc.EstimateID.String()
	}
	for _, row := range doc.Items {
		item := billing.LineItem{
			ID:          row.ID.String(),
			Name:        row.Name,
			Description: row.Description,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
			OurPrice:    row.CostPrice,
			Taxable:     row.Taxable,
			Discount:    row.Discount,
			Total:       row.TotalPrice,
			Origin:      billing.Origin{Kind: billing.OriginKind(row.Origin)},
		}
		if row.ProductID != nil {
			item.Origin.ProductID = row.ProductID.String()
		}
		rec.Items = append(rec.Items, item)
	}
	return rec
}

// Insert creates a document with its items and returns the server id.
func (s *BillingStore) Insert(ctx context.Context, kind billing.Kind, rec billing.DocumentRecord) (string, error) {
	doc, err := s.rowFromRecord(kind, rec)
	if err != nil {
		return "", err
	}
	doc.ID = uuid.New()
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", err
	}
	return doc.ID.String(), nil
}

// Update replaces the document's fields and items in one transaction. The
// stored number is kept: numbers are immutable once assigned.
func (s *BillingStore) Update(ctx context.Context, kind billing.Kind, id string, rec billing.DocumentRecord) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("services: invalid document id %q: %w", id, err)
	}
	row, err := s.rowFromRecord(kind, rec)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Document
		if err := tx.Where("company_id = ? AND kind = ? AND id = ?", s.companyID, string(kind), docID).
			First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		if err := tx.Where("document_id = ?", docID).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}

		existing.JobID = row.JobID
		existing.Status = row.Status
		existing.TaxRate = row.TaxRate
		existing.Notes = row.Notes
		existing.Subtotal = row.Subtotal
		existing.TaxAmount = row.TaxAmount
		existing.Total = row.Total
		existing.AmountPaid = row.AmountPaid
		existing.Balance = row.Balance
		existing.EstimateID = row.EstimateID
		for i := range row.Items {
			row.Items[i].DocumentID = docID
		}
		existing.Items = row.Items

		return tx.Save(&existing).Error
	})
}

// Fetch loads a document with its items.
func (s *BillingStore) Fetch(ctx context.Context, kind billing.Kind, id string) (billing.DocumentRecord, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return billing.DocumentRecord{}, fmt.Errorf("services: invalid document id %q: %w", id, err)
	}
	var doc models.Document
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("company_id = ? AND kind = ? AND id = ?", s.companyID, string(kind), docID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.DocumentRecord{}, ErrDocumentNotFound
		}
		return billing.DocumentRecord{}, err
	}
	return recordFromRow(doc), nil
}

// InsertPayment stores a payment row against an invoice.
func (s *BillingStore) InsertPayment(ctx context.Context, invoiceID string, p billing.Payment) (string, error) {
	docID, err := uuid.Parse(invoiceID)
	if err != nil {
		return "", fmt.Errorf("services: invalid invoice id %q: %w", invoiceID, err)
	}
	row := models.Payment{
		ID:         uuid.New(),
		CompanyID:  s.companyID,
		DocumentID: docID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Reference:  p.Reference,
		Notes:      p.Notes,
		PaidAt:     p.Date,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID.String(), nil
}

// Next bumps the per-company counter for the kind under a row lock and
// returns the new value.
func (s *BillingStore) Next(ctx context.Context, kind billing.Kind) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq models.NumberSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ? AND kind = ?", s.companyID, string(kind)).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = models.NumberSequence{CompanyID: s.companyID, Kind: string(kind)}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		seq.Value++
		value = seq.Value
		return tx.Model(&models.NumberSequence{}).
			Where("company_id = ? AND kind = ?", s.companyID, string(kind)).
			Update("value", seq.Value).Error
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Products lists the company's active catalog for the engine.
func (s *BillingStore) Products(ctx context.Context) ([]billing.Product, error) {
	var rows []models.Product
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", s.companyID, true).
		Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]billing.Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, billing.Product{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Cost:        p.Cost,
			Category:    p.Category,
			Tags:        p.Tags,
			IsWarranty:  p.IsWarranty,
		})
	}
	return out, nil
}
