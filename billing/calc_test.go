package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"fieldservice-backend/billing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func referenceItems() []billing.LineItem {
	return []billing.LineItem{
		{
			ID: "a", Name: "Labor", Quantity: 2,
			UnitPrice: dec("50"), OurPrice: dec("30"),
			Taxable: true, Total: dec("100"),
		},
		{
			ID: "b", Name: "Permit fee", Quantity: 1,
			UnitPrice: dec("100"), OurPrice: dec("60"),
			Taxable: false, Total: dec("100"),
		},
	}
}

func TestCalcReferenceScenario(t *testing.T) {
	items := referenceItems()
	rate := dec("0.10")

	tests := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", billing.Subtotal(items), "200"},
		{"taxable subtotal", billing.TaxableSubtotal(items), "100"},
		{"tax", billing.TotalTax(items, rate), "10"},
		{"grand total", billing.GrandTotal(items, rate), "210"},
		{"margin", billing.TotalMargin(items), "80"},
		{"margin percentage", billing.MarginPercentage(items), "0.4"},
	}
	for _, tt := range tests {
		if !tt.got.Equal(dec(tt.want)) {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestGrandTotalIsSubtotalPlusTax(t *testing.T) {
	rates := []string{"0", "0.05", "0.10", "0.0825", "0.25"}
	items := referenceItems()
	for _, r := range rates {
		rate := dec(r)
		want := billing.Subtotal(items).Add(billing.TotalTax(items, rate))
		if got := billing.GrandTotal(items, rate); !got.Equal(want) {
			t.Errorf("rate %s: GrandTotal = %s, want subtotal+tax = %s", r, got, want)
		}
	}
}

func TestTaxableToggleChangesOnlyThatContribution(t *testing.T) {
	items := referenceItems()
	rate := dec("0.10")
	before := billing.TotalTax(items, rate)

	items[1].Taxable = true
	after := billing.TotalTax(items, rate)

	// Item b contributes 1 × 100 × 0.10 = 10 once taxable.
	if delta := after.Sub(before); !delta.Equal(dec("10")) {
		t.Errorf("tax delta = %s, want 10", delta)
	}
	if sub := billing.Subtotal(items); !sub.Equal(dec("200")) {
		t.Errorf("subtotal changed to %s after taxable toggle", sub)
	}
}

func TestCalcIsPureAndIdempotent(t *testing.T) {
	items := referenceItems()
	rate := dec("0.10")

	first := billing.GrandTotal(items, rate)
	second := billing.GrandTotal(items, rate)
	if first.String() != second.String() {
		t.Errorf("GrandTotal not idempotent: %s then %s", first, second)
	}

	// Inputs must not be mutated by any calculation.
	billing.Subtotal(items)
	billing.TotalMargin(items)
	billing.MarginPercentage(items)
	want := referenceItems()
	for i := range items {
		if items[i].Quantity != want[i].Quantity || !items[i].UnitPrice.Equal(want[i].UnitPrice) {
			t.Errorf("item %d mutated by calculation: %+v", i, items[i])
		}
	}
}

func TestMarginPercentageZeroSubtotal(t *testing.T) {
	if got := billing.MarginPercentage(nil); !got.IsZero() {
		t.Errorf("MarginPercentage(nil) = %s, want 0", got)
	}
	items := []billing.LineItem{{ID: "a", Quantity: 3, UnitPrice: decimal.Zero, Taxable: true}}
	if got := billing.MarginPercentage(items); !got.IsZero() {
		t.Errorf("MarginPercentage with zero-price items = %s, want 0", got)
	}
}
