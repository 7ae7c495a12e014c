package billing_test

import (
	"context"
	"testing"

	"fieldservice-backend/billing"
)

func persistedInvoice(t *testing.T, store *fakeStore) billing.DocumentRecord {
	t.Helper()
	ctx := context.Background()
	rec := billing.DocumentRecord{
		Number: "INV-0001", JobID: "job-1", Status: billing.StatusUnpaid,
		TaxRate: dec("0.10"), Items: referenceItems(),
		Subtotal: dec("200"), TaxAmount: dec("10"), Total: dec("210"),
		AmountPaid: dec("0"), Balance: dec("210"),
	}
	id, err := store.Insert(ctx, billing.KindInvoice, rec)
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	rec.ID = id
	return rec
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	inv := persistedInvoice(t, store)

	tests := []struct {
		name    string
		amount  string
		method  billing.PaymentMethod
		wantErr error
	}{
		{"zero amount", "0", billing.MethodCash, billing.ErrPaymentNotPositive},
		{"negative amount", "-5", billing.MethodCash, billing.ErrPaymentNotPositive},
		{"exceeds balance", "210.01", billing.MethodCash, billing.ErrPaymentExceedsBalance},
		{"unknown method", "50", billing.PaymentMethod("iou"), billing.ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := billing.RecordPayment(ctx, store, store, inv, billing.Payment{
				Amount: dec(tt.amount), Method: tt.method,
			})
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			// Rejection must leave the stored invoice untouched.
			stored, _ := store.Fetch(ctx, billing.KindInvoice, inv.ID)
			if !stored.Balance.Equal(dec("210")) || !stored.AmountPaid.IsZero() {
				t.Errorf("rejected payment changed invoice: paid %s balance %s", stored.AmountPaid, stored.Balance)
			}
		})
	}
}

func TestRecordPaymentSequential(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	inv := persistedInvoice(t, store)

	inv, err := billing.RecordPayment(ctx, store, store, inv, billing.Payment{
		Amount: dec("100"), Method: billing.MethodCard, Reference: "auth-81",
	})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !inv.Balance.Equal(dec("110")) || inv.Status != billing.StatusUnpaid {
		t.Errorf("after first payment: balance %s status %s", inv.Balance, inv.Status)
	}

	inv, err = billing.RecordPayment(ctx, store, store, inv, billing.Payment{
		Amount: dec("110"), Method: billing.MethodCash,
	})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !inv.Balance.IsZero() {
		t.Errorf("balance = %s after paying off, want 0", inv.Balance)
	}
	if inv.Status != billing.StatusPaid {
		t.Errorf("status = %s, want paid", inv.Status)
	}

	if got := len(store.payments[inv.ID]); got != 2 {
		t.Errorf("payment rows = %d, want 2", got)
	}

	// The running balance is authoritative: further payments are rejected.
	_, err = billing.RecordPayment(ctx, store, store, inv, billing.Payment{
		Amount: dec("1"), Method: billing.MethodCash,
	})
	if err != billing.ErrPaymentExceedsBalance {
		t.Errorf("payment on settled invoice = %v, want ErrPaymentExceedsBalance", err)
	}
}

func TestRecordPaymentRequiresPersistedInvoice(t *testing.T) {
	store := newFakeStore()
	_, err := billing.RecordPayment(context.Background(), store, store, billing.DocumentRecord{
		Total: dec("100"),
	}, billing.Payment{Amount: dec("50"), Method: billing.MethodCash})
	if err != billing.ErrInvoiceNotPersisted {
		t.Errorf("err = %v, want ErrInvoiceNotPersisted", err)
	}
}
