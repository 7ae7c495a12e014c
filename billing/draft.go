package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Draft is the in-memory editable state of one document. It is built by
// NewDraft or LoadDraft, mutated through the item operations below, and
// only becomes durable when passed to Save. Nothing here touches the store.
type Draft struct {
	Kind       Kind
	ID         string // server id, empty until first save
	Number     string
	JobID      string
	Status     string
	TaxRate    decimal.Decimal
	Notes      string
	Items      []LineItem
	EstimateID string          // invoice created by conversion
	AmountPaid decimal.Decimal // invoice only
}

// NewDraft seeds an empty document: no items, the supplied default tax
// rate, and a freshly generated number. The numbering call happens here so
// the draft is fully identified before any mutation is accepted.
func NewDraft(ctx context.Context, seq Sequencer, kind Kind, jobID string, defaultTaxRate decimal.Decimal) *Draft {
	status := StatusDraft
	if kind == KindInvoice {
		status = StatusUnpaid
	}
	return &Draft{
		Kind:    kind,
		JobID:   jobID,
		Status:  status,
		Number:  GenerateNumber(ctx, seq, kind),
		TaxRate: defaultTaxRate,
	}
}

// LoadDraft opens an existing document for editing. Items, tax rate, notes,
// and number are copied verbatim; stored totals are trusted until the next
// mutation, so no recalculation happens at load time.
func LoadDraft(kind Kind, rec DocumentRecord) *Draft {
	items := make([]LineItem, len(rec.Items))
	copy(items, rec.Items)
	return &Draft{
		Kind:       kind,
		ID:         rec.ID,
		Number:     rec.Number,
		JobID:      rec.JobID,
		Status:     rec.Status,
		TaxRate:    rec.TaxRate,
		Notes:      rec.Notes,
		Items:      items,
		EstimateID: rec.EstimateID,
		AmountPaid: rec.AmountPaid,
	}
}

// AddFromCatalog appends a line item seeded from a catalog product.
func (d *Draft) AddFromCatalog(p Product) LineItem {
	item := LineItem{
		ID:          tempID(),
		Name:        p.Name,
		Description: p.Description,
		Quantity:    1,
		UnitPrice:   p.Price,
		OurPrice:    p.Cost,
		Taxable:     true,
		Discount:    decimal.Zero,
		Total:       p.Price,
		Origin:      Origin{Kind: OriginCatalog, ProductID: p.ID},
	}
	d.Items = append(d.Items, item)
	return item
}

// AddWarranty appends a warranty product as a non-taxable line item. The
// line-item collection is the single source of truth for the selection;
// there is no separate selected-warranties list.
func (d *Draft) AddWarranty(p Product) LineItem {
	item := LineItem{
		ID:          tempID(),
		Name:        p.Name,
		Description: p.Description,
		Quantity:    1,
		UnitPrice:   p.Price,
		OurPrice:    p.Cost,
		Taxable:     false,
		Discount:    decimal.Zero,
		Total:       p.Price,
		Origin:      Origin{Kind: OriginWarranty, ProductID: p.ID},
	}
	d.Items = append(d.Items, item)
	return item
}

// AddCustomLine appends a blank line the user fills in afterwards.
func (d *Draft) AddCustomLine() LineItem {
	item := LineItem{
		ID:       tempID(),
		Quantity: 1,
		Taxable:  true,
		Origin:   Origin{Kind: OriginCustom},
	}
	d.Items = append(d.Items, item)
	return item
}

// Remove deletes the item with the given id. Unknown ids are a no-op.
func (d *Draft) Remove(id string) {
	for i, it := range d.Items {
		if it.ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return
		}
	}
}

// HasWarranty reports whether a warranty line for the product is present.
func (d *Draft) HasWarranty(productID string) bool {
	for _, it := range d.Items {
		if it.Origin.Kind == OriginWarranty && it.Origin.ProductID == productID {
			return true
		}
	}
	return false
}

// RemoveWarranty deletes the warranty line(s) for the product, if any.
func (d *Draft) RemoveWarranty(productID string) {
	kept := d.Items[:0]
	for _, it := range d.Items {
		if it.Origin.Kind == OriginWarranty && it.Origin.ProductID == productID {
			continue
		}
		kept = append(kept, it)
	}
	d.Items = kept
}

func (d *Draft) find(id string) *LineItem {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// SetQuantity updates an item's quantity and its total in one step.
// Quantities below one are clamped to one so a bad input can never feed
// NaN-style garbage into the totals.
func (d *Draft) SetQuantity(id string, quantity int) {
	it := d.find(id)
	if it == nil {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	it.Quantity = quantity
	it.Total = it.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SetUnitPrice updates an item's customer-facing price and its total in one
// step. Negative prices are clamped to zero.
func (d *Draft) SetUnitPrice(id string, price decimal.Decimal) {
	it := d.find(id)
	if it == nil {
		return
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	it.UnitPrice = price
	it.Total = price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// SetOurPrice updates the internal cost basis. Negative costs clamp to zero.
func (d *Draft) SetOurPrice(id string, cost decimal.Decimal) {
	it := d.find(id)
	if it == nil {
		return
	}
	if cost.IsNegative() {
		cost = decimal.Zero
	}
	it.OurPrice = cost
}

// SetName updates an item's display name.
func (d *Draft) SetName(id, name string) {
	if it := d.find(id); it != nil {
		it.Name = name
	}
}

// SetDescription updates an item's description.
func (d *Draft) SetDescription(id, description string) {
	if it := d.find(id); it != nil {
		it.Description = description
	}
}

// SetTaxable toggles whether the item contributes to tax.
func (d *Draft) SetTaxable(id string, taxable bool) {
	if it := d.find(id); it != nil {
		it.Taxable = taxable
	}
}

// SetDiscount updates an item's discount percentage. Negative values clamp
// to zero.
func (d *Draft) SetDiscount(id string, discount decimal.Decimal) {
	it := d.find(id)
	if it == nil {
		return
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	it.Discount = discount
}

// Record snapshots the draft into its stored representation, recomputing
// subtotal, tax, and total from the current items. Save always goes through
// here so persisted totals can never come from stale state.
func (d *Draft) Record() DocumentRecord {
	items := make([]LineItem, len(d.Items))
	copy(items, d.Items)
	total := GrandTotal(d.Items, d.TaxRate)
	return DocumentRecord{
		ID:         d.ID,
		Number:     d.Number,
		JobID:      d.JobID,
		Status:     d.Status,
		TaxRate:    d.TaxRate,
		Notes:      d.Notes,
		Items:      items,
		Subtotal:   Subtotal(d.Items),
		TaxAmount:  TotalTax(d.Items, d.TaxRate),
		Total:      total,
		EstimateID: d.EstimateID,
		AmountPaid: d.AmountPaid,
		Balance:    total.Sub(d.AmountPaid),
	}
}
