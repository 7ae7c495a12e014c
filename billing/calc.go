package billing

import "github.com/shopspring/decimal"

// Pure monetary calculations over a line-item collection. None of these
// functions mutate their input, and repeated calls with unchanged inputs
// return identical decimals, so callers may recompute freely.

// Subtotal sums quantity × unit price over every item, taxable or not.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// TaxableSubtotal sums quantity × unit price over taxable items only.
func TaxableSubtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Taxable {
			sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return sum
}

// TotalTax applies taxRate (a fraction, e.g. 0.10) to the taxable subtotal.
func TotalTax(items []LineItem, taxRate decimal.Decimal) decimal.Decimal {
	return TaxableSubtotal(items).Mul(taxRate)
}

// GrandTotal is subtotal plus tax.
func GrandTotal(items []LineItem, taxRate decimal.Decimal) decimal.Decimal {
	return Subtotal(items).Add(TotalTax(items, taxRate))
}

// TotalMargin sums (unit price − cost basis) × quantity over all items.
func TotalMargin(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Sub(it.OurPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// MarginPercentage is TotalMargin divided by Subtotal, or zero when the
// subtotal is zero.
func MarginPercentage(items []LineItem) decimal.Decimal {
	sub := Subtotal(items)
	if sub.IsZero() {
		return decimal.Zero
	}
	return TotalMargin(items).Div(sub)
}
