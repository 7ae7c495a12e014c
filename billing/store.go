package billing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentRecord is the stored representation of a document exchanged with
// the backing store. The engine owns interpreting Items; everything else is
// persisted as given.
type DocumentRecord struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	JobID      string          `json:"jobId"`
	Status     string          `json:"status"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	Notes      string          `json:"notes"`
	Items      []LineItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	Total      decimal.Decimal `json:"total"`
	EstimateID string          `json:"estimateId,omitempty"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Balance    decimal.Decimal `json:"balance"`
}

// DocumentStore is the persistence boundary. Insert returns the
// server-assigned id; Update never changes the document number.
type DocumentStore interface {
	Insert(ctx context.Context, kind Kind, rec DocumentRecord) (string, error)
	Update(ctx context.Context, kind Kind, id string, rec DocumentRecord) error
	Fetch(ctx context.Context, kind Kind, id string) (DocumentRecord, error)
}

// PaymentStore persists payment records against an invoice.
type PaymentStore interface {
	InsertPayment(ctx context.Context, invoiceID string, p Payment) (string, error)
}

// Sequencer hands out monotonic per-kind counters for document numbering.
type Sequencer interface {
	Next(ctx context.Context, kind Kind) (int64, error)
}

// Dispatcher delivers a finalized document to a recipient. The engine only
// consumes success or failure.
type Dispatcher interface {
	Send(ctx context.Context, kind Kind, id string, recipient string) error
}

// Product is a purchasable catalog entry used to seed line items.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	IsWarranty  bool            `json:"isWarranty"`
}

// Catalog is a read-only product listing.
type Catalog interface {
	Products(ctx context.Context) ([]Product, error)
}

// IsWarrantyProduct reports whether a product should be offered during the
// warranty step. An explicit flag wins; otherwise the configured keywords
// are matched case-insensitively against name, category, and tags.
func IsWarrantyProduct(p Product, keywords []string) bool {
	if p.IsWarranty {
		return true
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), kw) ||
			strings.Contains(strings.ToLower(p.Category), kw) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				return true
			}
		}
	}
	return false
}

// WarrantyProducts filters a catalog listing down to warranty offerings.
func WarrantyProducts(products []Product, keywords []string) []Product {
	var out []Product
	for _, p := range products {
		if IsWarrantyProduct(p, keywords) {
			out = append(out, p)
		}
	}
	return out
}
