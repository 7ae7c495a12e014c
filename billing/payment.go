package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodCheck        PaymentMethod = "check"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodOther        PaymentMethod = "other"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodCheck, MethodBankTransfer, MethodOther:
		return true
	}
	return false
}

// Payment is one amount applied against an invoice's balance.
type Payment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

var (
	ErrPaymentNotPositive   = errors.New("billing: payment amount must be greater than zero")
	ErrPaymentExceedsBalance = errors.New("billing: payment amount exceeds outstanding balance")
	ErrInvalidPaymentMethod = errors.New("billing: unknown payment method")
	ErrInvoiceNotPersisted  = errors.New("billing: invoice must be saved before recording payments")
)

// RecordPayment validates and applies a payment against a persisted
// invoice. Amounts over the outstanding balance are rejected outright, not
// clamped: an overpayment indicates a user input mistake. On success the
// payment row is inserted, the invoice's paid amount and balance are
// updated, and the invoice moves to paid once the balance reaches zero.
// The updated invoice record is returned.
func RecordPayment(ctx context.Context, docs DocumentStore, payments PaymentStore, inv DocumentRecord, p Payment) (DocumentRecord, error) {
	if inv.ID == "" {
		return inv, ErrInvoiceNotPersisted
	}
	if !ValidMethod(p.Method) {
		return inv, ErrInvalidPaymentMethod
	}
	balance := inv.Total.Sub(inv.AmountPaid)
	if !p.Amount.IsPositive() {
		return inv, ErrPaymentNotPositive
	}
	if p.Amount.GreaterThan(balance) {
		return inv, ErrPaymentExceedsBalance
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}

	id, err := payments.InsertPayment(ctx, inv.ID, p)
	if err != nil {
		return inv, err
	}
	p.ID = id

	inv.AmountPaid = inv.AmountPaid.Add(p.Amount)
	inv.Balance = inv.Total.Sub(inv.AmountPaid)
	if inv.Balance.IsZero() {
		inv.Status = StatusPaid
	}
	if err := docs.Update(ctx, KindInvoice, inv.ID, inv); err != nil {
		return inv, err
	}
	return inv, nil
}
