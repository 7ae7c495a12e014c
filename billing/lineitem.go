package billing

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two billing document variants.
type Kind string

const (
	KindEstimate Kind = "estimate"
	KindInvoice  Kind = "invoice"
)

// Prefix returns the human-readable number prefix for the kind.
func (k Kind) Prefix() string {
	if k == KindInvoice {
		return "INV"
	}
	return "EST"
}

// Document status values.
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusConverted = "converted" // estimate only
	StatusUnpaid    = "unpaid"    // invoice only
	StatusPaid      = "paid"      // invoice only
)

// OriginKind tags how a line item entered the document.
type OriginKind string

const (
	OriginCatalog  OriginKind = "catalog"
	OriginCustom   OriginKind = "custom"
	OriginWarranty OriginKind = "warranty"
)

// Origin identifies the source of a line item. ProductID is set for
// catalog and warranty lines.
type Origin struct {
	Kind      OriginKind `json:"kind"`
	ProductID string     `json:"productId,omitempty"`
}

// LineItem is one billable row within a document. Total is always
// Quantity × UnitPrice; only the draft setters may change it.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	OurPrice    decimal.Decimal `json:"ourPrice"`
	Taxable     bool            `json:"taxable"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Origin      Origin          `json:"origin"`
}

var tempSeq atomic.Int64

// tempID returns a client-side identifier for a not-yet-persisted item.
// The store replaces it with a server-assigned id on save.
func tempID() string {
	return fmt.Sprintf("temp-%d-%d", time.Now().UnixMilli(), tempSeq.Add(1))
}
