package billing_test

import (
	"context"
	"strings"
	"testing"

	"fieldservice-backend/billing"
)

func laborProduct() billing.Product {
	return billing.Product{
		ID: "prod-1", Name: "Drain cleaning", Description: "Standard drain service",
		Price: dec("150"), Cost: dec("90"), Category: "Plumbing",
	}
}

func warrantyProduct() billing.Product {
	return billing.Product{
		ID: "prod-9", Name: "2-Year Warranty", Description: "Parts and labor",
		Price: dec("49"), Cost: dec("5"), Category: "Coverage", IsWarranty: true,
	}
}

func TestNewDraftDefaults(t *testing.T) {
	seq := newFakeSequencer()
	d := billing.NewDraft(context.Background(), seq, billing.KindEstimate, "job-1", dec("0.10"))

	if d.Number != "EST-0001" {
		t.Errorf("number = %q, want EST-0001", d.Number)
	}
	if d.Status != billing.StatusDraft {
		t.Errorf("status = %q, want draft", d.Status)
	}
	if len(d.Items) != 0 || d.Notes != "" {
		t.Errorf("new draft not empty: %d items, notes %q", len(d.Items), d.Notes)
	}
	if !d.TaxRate.Equal(dec("0.10")) {
		t.Errorf("tax rate = %s, want 0.10", d.TaxRate)
	}
}

func TestNewDraftNumberingOffline(t *testing.T) {
	seq := newFakeSequencer()
	seq.offline = true

	a := billing.NewDraft(context.Background(), seq, billing.KindEstimate, "job-1", dec("0.10"))
	b := billing.NewDraft(context.Background(), seq, billing.KindEstimate, "job-1", dec("0.10"))

	for _, d := range []*billing.Draft{a, b} {
		if !strings.HasPrefix(d.Number, "EST-") || len(d.Number) <= len("EST-") {
			t.Errorf("fallback number %q lacks kind prefix", d.Number)
		}
	}
	if a.Number == b.Number {
		t.Errorf("fallback numbers collide: %q", a.Number)
	}
}

func TestLoadDraftCopiesVerbatim(t *testing.T) {
	rec := billing.DocumentRecord{
		ID: "doc-7", Number: "EST-0042", JobID: "job-3",
		Status: billing.StatusSent, TaxRate: dec("0.0825"),
		Notes: "call before arrival", Items: referenceItems(),
	}
	d := billing.LoadDraft(billing.KindEstimate, rec)

	if d.ID != "doc-7" || d.Number != "EST-0042" || d.Notes != "call before arrival" {
		t.Errorf("loaded draft lost identity fields: %+v", d)
	}
	if !d.TaxRate.Equal(dec("0.0825")) {
		t.Errorf("tax rate = %s, want 0.0825", d.TaxRate)
	}
	if len(d.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(d.Items))
	}

	// Editing the draft must not reach back into the source record.
	d.SetQuantity(d.Items[0].ID, 9)
	if rec.Items[0].Quantity == 9 {
		t.Error("draft mutation leaked into the loaded record")
	}
}

func TestAddFromCatalog(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate, TaxRate: dec("0.10")}
	item := d.AddFromCatalog(laborProduct())

	if item.Quantity != 1 || !item.Total.Equal(dec("150")) {
		t.Errorf("catalog item seeded wrong: qty %d total %s", item.Quantity, item.Total)
	}
	if !item.Taxable {
		t.Error("catalog item should default to taxable")
	}
	if item.Origin.Kind != billing.OriginCatalog || item.Origin.ProductID != "prod-1" {
		t.Errorf("origin = %+v, want catalog/prod-1", item.Origin)
	}
	if !strings.HasPrefix(item.ID, "temp-") {
		t.Errorf("unsaved item id %q should be client-assigned", item.ID)
	}
}

func TestAddCustomLine(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate}
	item := d.AddCustomLine()
	if item.Quantity != 1 || !item.Taxable || item.Name != "" {
		t.Errorf("custom line = %+v, want blank taxable qty-1 row", item)
	}
	if item.Origin.Kind != billing.OriginCustom {
		t.Errorf("origin = %+v, want custom", item.Origin)
	}
}

func TestRemoveUnknownIDIsNoOp(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate}
	d.AddFromCatalog(laborProduct())
	d.Remove("no-such-id")
	if len(d.Items) != 1 {
		t.Errorf("items = %d after removing unknown id, want 1", len(d.Items))
	}
}

func TestSetQuantityRecomputesTotal(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate}
	item := d.AddFromCatalog(laborProduct())

	tests := []struct {
		name      string
		quantity  int
		wantQty   int
		wantTotal string
	}{
		{"normal", 3, 3, "450"},
		{"zero clamps to one", 0, 1, "150"},
		{"negative clamps to one", -5, 1, "150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.SetQuantity(item.ID, tt.quantity)
			got := d.Items[0]
			if got.Quantity != tt.wantQty {
				t.Errorf("quantity = %d, want %d", got.Quantity, tt.wantQty)
			}
			if !got.Total.Equal(dec(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestSetUnitPriceRecomputesTotal(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate}
	item := d.AddFromCatalog(laborProduct())
	d.SetQuantity(item.ID, 2)

	d.SetUnitPrice(item.ID, dec("80"))
	if got := d.Items[0]; !got.Total.Equal(dec("160")) {
		t.Errorf("total = %s after price change, want 160", got.Total)
	}

	d.SetUnitPrice(item.ID, dec("-10"))
	if got := d.Items[0]; !got.UnitPrice.IsZero() || !got.Total.IsZero() {
		t.Errorf("negative price not clamped: price %s total %s", got.UnitPrice, got.Total)
	}
}

func TestWarrantySelectionThroughLineItems(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate, TaxRate: dec("0.10")}
	d.AddFromCatalog(laborProduct())
	w := warrantyProduct()

	d.AddWarranty(w)
	if !d.HasWarranty(w.ID) {
		t.Fatal("warranty not reflected in line items")
	}
	added := d.Items[len(d.Items)-1]
	if added.Taxable {
		t.Error("warranty line must be non-taxable")
	}
	if !added.Discount.IsZero() {
		t.Errorf("warranty discount = %s, want 0", added.Discount)
	}

	// Warranty line must not move the tax figure, only the subtotal.
	if tax := billing.TotalTax(d.Items, d.TaxRate); !tax.Equal(dec("15")) {
		t.Errorf("tax = %s, want 15 (labor only)", tax)
	}

	d.RemoveWarranty(w.ID)
	if d.HasWarranty(w.ID) || len(d.Items) != 1 {
		t.Errorf("warranty removal left %d items, HasWarranty=%v", len(d.Items), d.HasWarranty(w.ID))
	}
}

func TestRecordRecomputesTotalsFromCurrentItems(t *testing.T) {
	d := &billing.Draft{Kind: billing.KindEstimate, Number: "EST-0009", TaxRate: dec("0.10")}
	item := d.AddFromCatalog(laborProduct())
	d.SetQuantity(item.ID, 2)

	rec := d.Record()
	if !rec.Subtotal.Equal(dec("300")) || !rec.TaxAmount.Equal(dec("30")) || !rec.Total.Equal(dec("330")) {
		t.Errorf("record totals = %s/%s/%s, want 300/30/330", rec.Subtotal, rec.TaxAmount, rec.Total)
	}

	// A later edit then snapshot must reflect current state, not the old one.
	d.SetUnitPrice(item.ID, dec("100"))
	rec = d.Record()
	if !rec.Total.Equal(dec("220")) {
		t.Errorf("record total = %s after edit, want 220", rec.Total)
	}
}

func TestWarrantyClassification(t *testing.T) {
	keywords := []string{"warranty", "protection"}
	tests := []struct {
		name string
		p    billing.Product
		want bool
	}{
		{"explicit flag", billing.Product{Name: "Coverage Plus", IsWarranty: true}, true},
		{"name match", billing.Product{Name: "Extended Warranty"}, true},
		{"category match", billing.Product{Name: "Shield", Category: "Protection Plans"}, true},
		{"tag match", billing.Product{Name: "Shield", Tags: []string{"warranty"}}, true},
		{"no match", billing.Product{Name: "Drain cleaning", Category: "Plumbing"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := billing.IsWarrantyProduct(tt.p, keywords); got != tt.want {
				t.Errorf("IsWarrantyProduct = %v, want %v", got, tt.want)
			}
		})
	}
}
